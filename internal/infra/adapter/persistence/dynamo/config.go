package dynamo

import (
	"sactech-events/internal/pkg/config"
)

// LoadConfigFromEnv reads DYNAMODB_TABLE, AWS_REGION and DYNAMODB_ENDPOINT.
func LoadConfigFromEnv() Config {
	return Config{
		Region:    config.LoadEnvString("AWS_REGION", "us-west-2"),
		TableName: config.LoadEnvString("DYNAMODB_TABLE", "sactech_events"),
		Endpoint:  config.LoadEnvString("DYNAMODB_ENDPOINT", ""),
	}
}
