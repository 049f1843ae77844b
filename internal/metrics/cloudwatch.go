package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	appconfig "oiflow/config"
	"oiflow/internal/models"
	"oiflow/logger"
)

// putMetricAPI is the slice of the CloudWatch client the publisher needs.
type putMetricAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Publisher pushes per-run counters to CloudWatch. It is constructed
// explicitly and scoped to one run; when metrics are disabled the constructor
// returns nil and callers skip publishing.
type Publisher struct {
	client    putMetricAPI
	namespace string
	log       *logger.Log
}

// NewPublisher builds a CloudWatch publisher from the application
// configuration. Returns nil without error when metrics are disabled.
func NewPublisher(ctx context.Context, cfg *appconfig.Config) (*Publisher, error) {
	if !cfg.Metrics.CloudWatch {
		return nil, nil
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Storage.S3.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config for metrics: %w", err)
	}

	return &Publisher{
		client:    cloudwatch.NewFromConfig(awsCfg),
		namespace: cfg.Metrics.Namespace,
		log:       logger.GetLogger(),
	}, nil
}

// PublishRun reports one history rebuild. Metric delivery is best effort; an
// error is returned for operator visibility but callers treat it as non-fatal.
func (p *Publisher) PublishRun(ctx context.Context, runID string, stats models.RunStats, duration time.Duration) error {
	dims := []cwtypes.Dimension{
		{Name: aws.String("run_id"), Value: aws.String(runID)},
	}

	counter := func(name string, value int) cwtypes.MetricDatum {
		return cwtypes.MetricDatum{
			MetricName: aws.String(name),
			Dimensions: dims,
			Unit:       cwtypes.StandardUnitCount,
			Value:      aws.Float64(float64(value)),
		}
	}

	data := []cwtypes.MetricDatum{
		counter("DaysEmitted", stats.DaysEmitted),
		counter("DaysOverridden", stats.DaysOverridden),
		counter("DaysMissing", stats.DaysMissing),
		counter("DaysFailed", stats.DaysFailed),
		counter("DaysEmpty", stats.DaysEmpty),
		{
			MetricName: aws.String("RunDuration"),
			Dimensions: dims,
			Unit:       cwtypes.StandardUnitSeconds,
			Value:      aws.Float64(duration.Seconds()),
		},
	}

	if _, err := p.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(p.namespace),
		MetricData: data,
	}); err != nil {
		return fmt.Errorf("publish run metrics: %w", err)
	}

	p.log.WithComponent("metrics").WithFields(logger.Fields{
		"namespace": p.namespace,
		"run_id":    runID,
	}).Debug("published run metrics")
	return nil
}
