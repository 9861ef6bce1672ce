package config

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ssmMaxBatchSize is the maximum number of parameters that can be retrieved
// in a single SSM GetParameters API call. This is an AWS service limit.
const ssmMaxBatchSize = 10

const defaultRegion = "us-east-1"

// ssmClient is the subset of the SSM SDK client used by SSMProvider.
// This interface enables testing with a mock client.
type ssmClient interface {
	GetParameters(ctx context.Context, params *ssm.GetParametersInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersOutput, error)
}

// SSMProvider implements SecretProvider against AWS Systems Manager Parameter
// Store. It is the provider for dev, staging and prod, where engine settings
// such as ENGINE_HOME or ENGINE_INHERITED_LOGS may be kept as parameters.
//
// Lookups are batched to the GetParameters limit with decryption enabled.
// Context cancellation is checked between batches so a start-up deadline is
// honored.
type SSMProvider struct {
	// region is the AWS region where the parameters are stored.
	region string

	// endpoint overrides the service endpoint (LocalStack). Empty in prod.
	endpoint string

	// client is the SSM API client. If nil, a new client is created
	// lazily using the configured region.
	client ssmClient
}

// SSMOption configures an SSMProvider.
type SSMOption func(*SSMProvider)

// WithEndpoint points the provider at a non-default endpoint, e.g. the
// LocalStack URL from AWS_ENDPOINT_URL.
func WithEndpoint(url string) SSMOption {
	return func(p *SSMProvider) { p.endpoint = url }
}

// NewSSMProvider creates a new SSMProvider for the given AWS region.
func NewSSMProvider(region string, opts ...SSMOption) *SSMProvider {
	p := &SSMProvider{region: region}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewSSMProviderFromEnv builds an SSMProvider from AWS_REGION and
// AWS_ENDPOINT_URL. It runs before LoadConfig, so it reads the environment
// directly and applies the same region default as AWSConfig.
func NewSSMProviderFromEnv() *SSMProvider {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = defaultRegion
	}
	return NewSSMProvider(region, WithEndpoint(os.Getenv("AWS_ENDPOINT_URL")))
}

// newSSMProviderWithClient creates a new SSMProvider with an injected SSM client.
func newSSMProviderWithClient(region string, client ssmClient) *SSMProvider {
	return &SSMProvider{
		region: region,
		client: client,
	}
}

// ensureClient initializes the SSM client if it has not been created yet.
// Uses the AWS SDK default config loader with the configured region.
func (p *SSMProvider) ensureClient(ctx context.Context) error {
	if p.client != nil {
		return nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(p.region),
	)
	if err != nil {
		return fmt.Errorf("loading AWS config for SSM (region=%s): %w", p.region, err)
	}

	var clientOpts []func(*ssm.Options)
	if p.endpoint != "" {
		clientOpts = append(clientOpts, func(o *ssm.Options) {
			o.BaseEndpoint = aws.String(p.endpoint)
		})
	}
	p.client = ssm.NewFromConfig(cfg, clientOpts...)
	return nil
}

// GetParametersBatch retrieves the parameters named by keys, at most
// ssmMaxBatchSize per request. Duplicate keys are requested once. Parameters
// that SSM reports as invalid fail the whole call.
func (p *SSMProvider) GetParametersBatch(ctx context.Context, keys []string) (map[string]string, error) {
	keys = dedupe(keys)
	if len(keys) == 0 {
		return make(map[string]string), nil
	}

	// Initialize the SSM client if needed.
	if err := p.ensureClient(ctx); err != nil {
		return nil, err
	}

	result := make(map[string]string, len(keys))

	// Process keys in batches of ssmMaxBatchSize.
	for i := 0; i < len(keys); i += ssmMaxBatchSize {
		// Check context cancellation before each batch.
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during SSM parameter retrieval: %w", ctx.Err())
		default:
		}

		end := i + ssmMaxBatchSize
		if end > len(keys) {
			end = len(keys)
		}
		batch := keys[i:end]

		output, err := p.client.GetParameters(ctx, &ssm.GetParametersInput{
			Names:          batch,
			WithDecryption: aws.Bool(true),
		})
		if err != nil {
			return nil, fmt.Errorf("SSM GetParameters failed (batch %d-%d of %d): %w",
				i, end-1, len(keys), err)
		}

		// Collect resolved parameters.
		for _, param := range output.Parameters {
			if param.Name != nil && param.Value != nil {
				result[*param.Name] = *param.Value
			}
		}

		// Check for invalid (not found) parameters.
		if len(output.InvalidParameters) > 0 {
			return nil, fmt.Errorf("SSM parameters not found: %v", output.InvalidParameters)
		}
	}

	return result, nil
}

func dedupe(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := keys[:0:0]
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}
