package storage

import (
	"context"
	"errors"

	"github.com/FerDoranNie/Video-judgement/logging"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type VoteStorage interface {
	// Create appends one record. It never updates an existing row; a
	// same-participant same-video replay fails with ErrVoteAlreadyExists.
	Create(ctx context.Context, vote *VoteRecord) error
	GetByCode(ctx context.Context, code string) ([]*VoteRecord, error)
	// HasVoted reports whether any record for the tournament matches the
	// display name or, when non-empty, the employee identifier. Both keys
	// are checked independently, matching the original event rules.
	HasVoted(ctx context.Context, code, displayName, employeeID string) (bool, error)
}

type DynamoVoteStorage struct {
	Client    *dynamodb.Client
	TableName string
}

func (s *DynamoVoteStorage) Create(ctx context.Context, vote *VoteRecord) error {
	item, err := attributevalue.MarshalMap(vote)
	if err != nil {
		logging.Log.Errorf("VOTE: failed to marshal vote: %v", err)
		return err
	}
	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &s.TableName,
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if asConditionalCheckFailed(err, &conditionFailed) {
			return ErrVoteAlreadyExists
		}
		logging.Log.Errorf("VOTE: failed to create vote: %v", err)
		return err
	}
	return nil
}

func (s *DynamoVoteStorage) GetByCode(ctx context.Context, code string) ([]*VoteRecord, error) {
	input := &dynamodb.QueryInput{
		TableName:              &s.TableName,
		KeyConditionExpression: aws.String("PK = :code"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":code": &types.AttributeValueMemberS{Value: code},
		},
	}

	output, err := s.Client.Query(ctx, input)
	if err != nil {
		logging.Log.Errorf("VOTE: failed to query votes by code: %v", err)
		return nil, err
	}

	var votes []*VoteRecord
	if err := attributevalue.UnmarshalListOfMaps(output.Items, &votes); err != nil {
		logging.Log.Errorf("VOTE: failed to unmarshal votes for code %s: %v", code, err)
		return nil, err
	}
	return votes, nil
}

func (s *DynamoVoteStorage) HasVoted(ctx context.Context, code, displayName, employeeID string) (bool, error) {
	votes, err := s.GetByCode(ctx, code)
	if err != nil {
		return false, err
	}
	return matchesIdentity(votes, displayName, employeeID), nil
}

// matchesIdentity is the shared duplicate rule for every backend.
func matchesIdentity(votes []*VoteRecord, displayName, employeeID string) bool {
	for _, v := range votes {
		if v.DisplayName == displayName {
			return true
		}
		if employeeID != "" && v.EmployeeID == employeeID {
			return true
		}
	}
	return false
}

func asConditionalCheckFailed(err error, target **types.ConditionalCheckFailedException) bool {
	return errors.As(err, target)
}
