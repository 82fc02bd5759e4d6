package cloudwatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"

	"github.com/dreschagin/container-bootstrap/internal/events"
)

const (
	// CloudWatch Logs limits a single event to 256 KB.
	maxLogEventSize = 256000

	putRetries     = 3
	initialBackoff = 100 * time.Millisecond
)

// Config holds CloudWatch Logs publishing settings for lifecycle events.
type Config struct {
	LogGroup        string
	LogStream       string
	Region          string
	Endpoint        string // optional override for LocalStack
	AccessKeyID     string
	SecretAccessKey string
}

// Publisher publishes lifecycle events to AWS CloudWatch Logs. Event volume
// is a handful per boot, so each event is put immediately instead of being
// buffered behind a flush ticker.
type Publisher struct {
	client    *cloudwatchlogs.Client
	logGroup  string
	logStream string

	mu            sync.Mutex
	sequenceToken *string // CloudWatch requires sequence tokens for ordering
}

// NewPublisher builds the client and makes sure the log group and stream
// exist.
func NewPublisher(ctx context.Context, cfg Config) (*Publisher, error) {
	if cfg.LogGroup == "" {
		return nil, errors.New("log group is required")
	}
	if cfg.LogStream == "" {
		return nil, errors.New("log stream is required")
	}
	if cfg.Region == "" {
		return nil, errors.New("region is required")
	}

	awsCfg, err := buildAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build aws config: %w", err)
	}

	p := &Publisher{
		client:    cloudwatchlogs.NewFromConfig(awsCfg),
		logGroup:  cfg.LogGroup,
		logStream: cfg.LogStream,
	}

	if err := p.ensureLogGroupAndStream(ctx); err != nil {
		return nil, fmt.Errorf("create log group/stream: %w", err)
	}

	return p, nil
}

// Publish converts the event to a structured JSON log line and puts it with
// retry and sequence-token recovery.
func (p *Publisher) Publish(ctx context.Context, event events.Event) error {
	logEvent, err := convertToLogEvent(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.putWithRetry(ctx, []types.InputLogEvent{logEvent})
}

func (p *Publisher) Close(context.Context) error { return nil }

// putWithRetry publishes log events, recovering from sequence token drift
// and backing off exponentially on other failures. Caller must hold the lock.
func (p *Publisher) putWithRetry(ctx context.Context, logEvents []types.InputLogEvent) error {
	var lastErr error
	backoff := initialBackoff

	for attempt := 0; attempt < putRetries; attempt++ {
		input := &cloudwatchlogs.PutLogEventsInput{
			LogGroupName:  aws.String(p.logGroup),
			LogStreamName: aws.String(p.logStream),
			LogEvents:     logEvents,
			SequenceToken: p.sequenceToken,
		}

		output, err := p.client.PutLogEvents(ctx, input)
		if err == nil {
			p.sequenceToken = output.NextSequenceToken
			return nil
		}

		var invalidSeqErr *types.InvalidSequenceTokenException
		if errors.As(err, &invalidSeqErr) {
			p.sequenceToken = invalidSeqErr.ExpectedSequenceToken
			continue
		}

		lastErr = err

		if attempt < putRetries-1 {
			select {
			case <-time.After(backoff):
				backoff *= 2
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("put log events after %d retries: %w", putRetries, lastErr)
}

// convertToLogEvent renders an Event as a CloudWatch InputLogEvent.
func convertToLogEvent(event events.Event) (types.InputLogEvent, error) {
	logData := map[string]interface{}{
		"id":        event.ID,
		"type":      string(event.Type),
		"timestamp": event.Timestamp.Format(time.RFC3339Nano),
	}
	if len(event.Fields) > 0 {
		logData["fields"] = event.Fields
	}

	messageJSON, err := json.Marshal(logData)
	if err != nil {
		return types.InputLogEvent{}, fmt.Errorf("marshal event: %w", err)
	}

	message := string(messageJSON)
	if len(message) > maxLogEventSize {
		message = message[:maxLogEventSize-3] + "..."
	}

	return types.InputLogEvent{
		Message:   aws.String(message),
		Timestamp: aws.Int64(event.Timestamp.UnixMilli()),
	}, nil
}

// ensureLogGroupAndStream creates the log group and stream if missing.
func (p *Publisher) ensureLogGroupAndStream(ctx context.Context) error {
	_, err := p.client.CreateLogGroup(ctx, &cloudwatchlogs.CreateLogGroupInput{
		LogGroupName: aws.String(p.logGroup),
	})
	if err != nil {
		var alreadyExists *types.ResourceAlreadyExistsException
		if !errors.As(err, &alreadyExists) {
			return fmt.Errorf("create log group: %w", err)
		}
	}

	_, err = p.client.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  aws.String(p.logGroup),
		LogStreamName: aws.String(p.logStream),
	})
	if err != nil {
		var alreadyExists *types.ResourceAlreadyExistsException
		if !errors.As(err, &alreadyExists) {
			return fmt.Errorf("create log stream: %w", err)
		}
	}

	return nil
}

func buildAWSConfig(ctx context.Context, cfg Config) (aws.Config, error) {
	optFns := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return aws.Config{}, err
	}

	if cfg.Endpoint != "" {
		awsCfg.BaseEndpoint = aws.String(cfg.Endpoint)
	}

	return awsCfg, nil
}
