package mainconfig

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/wolfman30/clinic-intake/internal/config"
)

func TestLoadAWSConfig_EndpointOverride(t *testing.T) {
	cfg := &appconfig.Config{
		AWSRegion:           "us-west-2",
		AWSAccessKeyID:      "test",
		AWSSecretAccessKey:  "test",
		AWSEndpointOverride: "http://localhost:4566",
	}
	awsCfg, err := LoadAWSConfig(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "us-west-2", awsCfg.Region)

	creds, err := awsCfg.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test", creds.AccessKeyID)

	for _, svc := range []string{sesv2.ServiceID, s3.ServiceID} {
		ep, err := awsCfg.EndpointResolverWithOptions.ResolveEndpoint(svc, "us-west-2")
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:4566", ep.URL)
	}
	_, err = awsCfg.EndpointResolverWithOptions.ResolveEndpoint("DynamoDB", "us-west-2")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger(&appconfig.Config{LogLevel: "debug", LogFormat: "text"})
	require.NotNil(t, logger)
	assert.True(t, logger.Enabled(context.Background(), -4))
}
