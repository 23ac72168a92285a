// Package metrics emits named numeric telemetry. Emission is best-effort: a failing sink is
// logged and otherwise ignored.
package metrics

import (
	"context"
	"log"
	"math"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/mt4110/seg-transcode/internal/logger"
)

type Unit string

const (
	Count        Unit = "Count"
	Seconds      Unit = "Seconds"
	Megabytes    Unit = "Megabytes"
	MegabytesSec Unit = "Megabytes/Second"
	None         Unit = "None"
)

// Dims are metric dimensions; values longer than 255 characters are truncated.
type Dims map[string]string

type Sink interface {
	Put(ctx context.Context, name string, value float64, unit Unit, dims Dims)
}

// Put is a shorthand for a dimensionless metric.
func Put(ctx context.Context, s Sink, name string, value float64, unit Unit) {
	s.Put(ctx, name, value, unit, nil)
}

type Nop struct{}

func (Nop) Put(context.Context, string, float64, Unit, Dims) {}

// Log writes each metric as a structured log event.
type Log struct{}

func (Log) Put(_ context.Context, name string, value float64, unit Unit, dims Dims) {
	f := logger.Fields{}
	for k, v := range dims {
		f[k] = v
	}
	// Dimensions never shadow the metric itself.
	f["metric"] = name
	f["value"] = value
	f["unit"] = string(unit)
	logger.Event("metric", f)
}

type cloudWatchAPI interface {
	PutMetricData(ctx context.Context, in *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatch sends one PutMetricData call per metric into Namespace.
type CloudWatch struct {
	Namespace string
	client    cloudWatchAPI
}

func NewCloudWatch(awsCfg aws.Config, namespace string) *CloudWatch {
	return &CloudWatch{Namespace: namespace, client: cloudwatch.NewFromConfig(awsCfg)}
}

func (c *CloudWatch) Put(ctx context.Context, name string, value float64, unit Unit, dims Dims) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		value = 0
	}
	datum := types.MetricDatum{
		MetricName: aws.String(name),
		Unit:       types.StandardUnit(unit),
		Value:      aws.Float64(value),
	}
	for k, v := range dims {
		datum.Dimensions = append(datum.Dimensions, types.Dimension{
			Name:  aws.String(k),
			Value: aws.String(truncate(v, 255)),
		})
	}

	_, err := c.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(c.Namespace),
		MetricData: []types.MetricDatum{datum},
	})
	if err != nil {
		log.Printf("⚠️ メトリクス送信に失敗しました (%s): %v", name, err)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// MB converts bytes to megabytes rounded to two decimals.
func MB(bytes int64) float64 {
	return Round2(float64(bytes) / (1024 * 1024))
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// SizeBucket groups an input size for use as a dimension.
func SizeBucket(bytes int64) string {
	mb := float64(bytes) / (1024 * 1024)
	switch {
	case mb < 20:
		return "S<20MB"
	case mb < 200:
		return "20-200MB"
	case mb < 2048:
		return "200MB-2GB"
	}
	return ">2GB"
}
