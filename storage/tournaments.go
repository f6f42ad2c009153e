package storage

import (
	"context"
	"time"

	"github.com/FerDoranNie/Video-judgement/logging"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type TournamentStorage interface {
	Get(ctx context.Context, code string) (*Tournament, error)
	GetAll(ctx context.Context) ([]*Tournament, error)
	Put(ctx context.Context, tournament *Tournament) error
	SetInactive(ctx context.Context, code string) error
}

type DynamoTournamentStorage struct {
	Client    *dynamodb.Client
	TableName string
}

func (s *DynamoTournamentStorage) Get(ctx context.Context, code string) (*Tournament, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"PK": code})
	if err != nil {
		logging.Log.Errorf("TOURNAMENT: failed to marshal key: %v", err)
		return nil, err
	}

	out, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.TableName,
		Key:       key,
	})
	if err != nil {
		logging.Log.Errorf("TOURNAMENT: GET storage failed: %v", err)
		return nil, err
	}
	if out.Item == nil {
		return nil, ErrTournamentNotFound
	}

	var t *Tournament
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		logging.Log.Errorf("TOURNAMENT: failed to unmarshal result: %v", err)
		return nil, err
	}
	return t, nil
}

func (s *DynamoTournamentStorage) GetAll(ctx context.Context) ([]*Tournament, error) {
	out, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
		TableName: &s.TableName,
	})
	if err != nil {
		logging.Log.Errorf("TOURNAMENT: scan failed: %v", err)
		return nil, err
	}

	var tournaments []*Tournament
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &tournaments); err != nil {
		logging.Log.Errorf("TOURNAMENT: failed to unmarshal list: %v", err)
		return nil, err
	}
	return tournaments, nil
}

func (s *DynamoTournamentStorage) Put(ctx context.Context, tournament *Tournament) error {
	if tournament.CreatedAt.IsZero() {
		tournament.CreatedAt = time.Now().UTC()
	}
	item, err := attributevalue.MarshalMap(tournament)
	if err != nil {
		logging.Log.Errorf("TOURNAMENT: failed to marshal tournament: %v", err)
		return err
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &s.TableName,
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if asConditionalCheckFailed(err, &conditionFailed) {
			return ErrTournamentAlreadyExists
		}
		logging.Log.Errorf("TOURNAMENT: PUT storage failed: %v", err)
		return err
	}
	return nil
}

func (s *DynamoTournamentStorage) SetInactive(ctx context.Context, code string) error {
	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(s.TableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: code},
		},
		UpdateExpression:          aws.String("SET IsActive = :val"),
		ConditionExpression:       aws.String("attribute_exists(PK)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":val": &types.AttributeValueMemberBOOL{Value: false}},
	}
	_, err := s.Client.UpdateItem(ctx, input)
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if asConditionalCheckFailed(err, &conditionFailed) {
			return ErrTournamentNotFound
		}
		logging.Log.Errorf("TOURNAMENT: failed to set inactive for %s: %v", code, err)
	}
	return err
}
