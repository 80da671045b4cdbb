// Package database wires the AWS SDK clients used by the persistence layer.
package database

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// DynamoDBSettings selects the target DynamoDB instance. A non-empty Endpoint
// points the client at a local container instead of AWS.
type DynamoDBSettings struct {
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string
}

// SettingsFromEnv reads the connection settings:
//   - AWS_REGION (default: us-east-1)
//   - AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY (default: local)
//   - DYNAMODB_ENDPOINT (optional; e.g. http://dynamodb:8000)
func SettingsFromEnv() DynamoDBSettings {
	return DynamoDBSettings{
		Region:    envOr("AWS_REGION", "us-east-1"),
		AccessKey: envOr("AWS_ACCESS_KEY_ID", "local"),
		SecretKey: envOr("AWS_SECRET_ACCESS_KEY", "local"),
		Endpoint:  os.Getenv("DYNAMODB_ENDPOINT"),
	}
}

// ConnectDynamoDB builds the DynamoDB client from the environment. Startup
// fails hard on a broken AWS config; the invoice archive is not optional.
func ConnectDynamoDB() *dynamodb.Client {
	cfg, err := loadAWSConfig(context.Background(), SettingsFromEnv())
	if err != nil {
		log.Fatalf("failed to create dynamodb config: %v", err)
	}
	return dynamodb.NewFromConfig(cfg)
}

func loadAWSConfig(ctx context.Context, s DynamoDBSettings) (aws.Config, error) {
	// Local DynamoDB does not validate credentials, but the SDK requires them.
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(s.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(s.AccessKey, s.SecretKey, "")),
	}

	if s.Endpoint != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, _ ...interface{}) (aws.Endpoint, error) {
			if service == dynamodb.ServiceID {
				return aws.Endpoint{URL: s.Endpoint, SigningRegion: region, HostnameImmutable: true}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		})
		opts = append(opts, config.WithEndpointResolverWithOptions(resolver))
	}

	return config.LoadDefaultConfig(ctx, opts...)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
