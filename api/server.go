package api

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/FerDoranNie/Video-judgement/api/controllers"
	"github.com/FerDoranNie/Video-judgement/api/transport"
	"github.com/FerDoranNie/Video-judgement/logging"
	"github.com/FerDoranNie/Video-judgement/storage"
	"github.com/FerDoranNie/Video-judgement/voting"
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
)

type Server struct {
	config *Config
}

func NewServer(config *Config) *Server {
	return &Server{
		config: config,
	}
}

func (s *Server) Start() {
	r := transport.NewRouter(gin.DebugMode)

	tournamentStorage, voteStorage := s.buildStorage()

	manager := voting.NewManager(tournamentStorage, voteStorage,
		time.Duration(s.config.StoreTimeoutSeconds)*time.Second)

	//Register controllers
	votingController := controllers.NewVotingController(manager)
	votingController.RegisterRoutes(r)
	adminController := controllers.NewAdminController(tournamentStorage, voteStorage)
	adminController.RegisterRoutes(r)
	resultsController := controllers.NewResultsController(tournamentStorage, voteStorage)
	resultsController.RegisterRoutes(r)

	//Do not run lambda helper locally
	if os.Getenv("APP_ENV") == "local" {
		startLocal(r, s.config.Port)
	} else {
		startLambda(r)
	}
}

// buildStorage picks the persistence backend from config: DynamoDB in
// production, SQLite for a single local binary, memory for throwaway runs.
func (s *Server) buildStorage() (storage.TournamentStorage, storage.VoteStorage) {
	switch s.config.Backend {
	case "memory":
		logging.Log.Warn("using in-memory storage, nothing will survive a restart")
		return storage.NewMemoryTournamentStorage(), storage.NewMemoryVoteStorage()

	case "sqlite":
		st, err := storage.NewSQLiteStorage(s.config.SQLitePath)
		if err != nil {
			logging.Log.Errorf("failed to open sqlite storage: %v", err)
			panic("failed to open sqlite storage")
		}
		return st, st

	default:
		cfg, err := awsconfig.LoadDefaultConfig(context.Background())
		if err != nil {
			logging.Log.Errorf("failed to load AWS config: %v", err)
			panic("failed to load AWS config")
		}
		dynamoClient := dynamodb.NewFromConfig(cfg)
		return &storage.DynamoTournamentStorage{
				Client:    dynamoClient,
				TableName: s.config.TableNameTournaments,
			}, &storage.DynamoVoteStorage{
				Client:    dynamoClient,
				TableName: s.config.TableNameVotes,
			}
	}
}

// startLambda sets up for AWS Lambda
func startLambda(engine *gin.Engine) {
	ginLambda := ginadapter.NewV2(engine)

	handler := func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		logging.Log.Infof("Lambda handler triggered on path: %s", req.RawPath)
		return ginLambda.ProxyWithContext(ctx, req)
	}

	logging.Log.Info("Starting lambda")
	lambda.Start(handler)
}

// startLocal starts a normal HTTP server
func startLocal(engine *gin.Engine, port int) {
	logging.Log.Info(fmt.Sprintf("Starting server on http://localhost:%d", port))

	if err := engine.Run(fmt.Sprintf(":%d", port)); err != nil {
		logging.Log.Fatalf("Failed to run server: %v", err)
	}
}
