//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/couchcryptid/climate-risk-service/internal/adapter/kafka"
	"github.com/couchcryptid/climate-risk-service/internal/config"
	"github.com/couchcryptid/climate-risk-service/internal/domain"
	"github.com/couchcryptid/climate-risk-service/internal/observability"
	"github.com/couchcryptid/climate-risk-service/internal/pipeline"
	"github.com/couchcryptid/climate-risk-service/internal/schema"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSourceTopic = "test-source"
	testSinkTopic   = "test-sink"
)

var requestedAt = time.Date(2024, time.December, 3, 0, 0, 0, 0, time.UTC)

// assessedMessage holds a deserialized message read from the sink topic.
type assessedMessage struct {
	Assessment domain.Assessment
	Key        string
	Headers    map[string]string
}

func readAssessed(ctx context.Context, t *testing.T, consumer *kafkago.Reader) assessedMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var a domain.Assessment
	require.NoError(t, json.Unmarshal(msg.Value, &a), "unmarshal sink message")

	return assessedMessage{Assessment: a, Key: string(msg.Key), Headers: headers}
}

func testConfig(broker, group string) *config.Config {
	return &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("%s-%d", group, time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}
}

func newSinkConsumer(t *testing.T, broker string) *kafkago.Reader {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

func newProducer(t *testing.T, broker string) *kafkago.Writer {
	t.Helper()
	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })
	return producer
}

// TestKafkaReaderWriter round-trips one village request through the adapters.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-reader")

	profile := loadMockData(t)[0] // Lembur Sawah
	payload, err := json.Marshal(profile.Request())
	require.NoError(t, err)

	require.NoError(t, newProducer(t, broker).WriteMessages(ctx, kafkago.Message{
		Key:   []byte("test-key"),
		Value: payload,
		Time:  requestedAt,
	}))

	// The consumer group may need time to rebalance before partitions are assigned.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	var batch []domain.RawEvent
	for {
		batch, err = reader.ExtractBatch(ctx, 1)
		require.NoError(t, err)
		if len(batch) > 0 {
			break
		}
		if ctx.Err() != nil {
			t.Fatal("timed out waiting for message from source topic")
		}
	}
	require.Len(t, batch, 1)
	raw := batch[0]
	assert.Equal(t, []byte("test-key"), raw.Key)
	assert.Equal(t, payload, raw.Value)
	assert.Equal(t, testSourceTopic, raw.Topic)
	require.NotNil(t, raw.Commit, "commit callback should be set")
	require.NoError(t, raw.Commit(ctx))

	transformer := pipeline.NewTransformer(schema.MustNew(), nil, nil, discardLogger())
	a, err := transformer.Transform(ctx, raw)
	require.NoError(t, err)

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })
	require.NoError(t, writer.LoadBatch(ctx, []domain.Assessment{a}))

	am := readAssessed(ctx, t, newSinkConsumer(t, broker))
	assert.Equal(t, a.ID, am.Key)
	assert.Equal(t, "low", am.Headers[kafka.HeaderBand])
	_, err = time.Parse(time.RFC3339, am.Headers[kafka.HeaderProcessedAt])
	assert.NoError(t, err, "processed_at should be valid RFC3339")

	assert.Equal(t, "Lembur Sawah", am.Assessment.Village)
	assert.Equal(t, "0.000", am.Assessment.IndexDisplay)
	require.NotNil(t, am.Assessment.Adjusted)
	assert.Equal(t, "-0.022", am.Assessment.Adjusted.IndexDisplay)
	assert.Equal(t, requestedAt, am.Assessment.RequestedAt)
}

// TestPipelineEndToEnd runs every sample village through the full pipeline.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-pipeline")

	profiles := loadMockData(t)
	msgs := make([]kafkago.Message, 0, len(profiles))
	for _, p := range profiles {
		payload, err := json.Marshal(p.Request())
		require.NoError(t, err)
		msgs = append(msgs, kafkago.Message{Key: []byte(p.Name), Value: payload, Time: requestedAt})
	}
	require.NoError(t, newProducer(t, broker).WriteMessages(ctx, msgs...))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	transformer := pipeline.NewTransformer(schema.MustNew(), nil, nil, discardLogger())
	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(reader, transformer, writer, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := newSinkConsumer(t, broker)
	byVillage := make(map[string]assessedMessage, len(profiles))
	for len(byVillage) < len(profiles) {
		am := readAssessed(ctx, t, consumer)
		byVillage[am.Assessment.Village] = am
	}

	pipelineCancel()
	require.NoError(t, <-errCh)
	require.NoError(t, p.CheckReadiness(ctx))

	for _, am := range byVillage {
		assert.Equal(t, am.Assessment.Band().String(), am.Headers[kafka.HeaderBand], am.Assessment.Village)
		assert.Equal(t, am.Assessment.ID, am.Key)
	}

	cibadak := byVillage["Cibadak"].Assessment
	assert.Equal(t, domain.BandHigh, cibadak.Result.Band)
	assert.Equal(t, "0.720", cibadak.IndexDisplay)
	assert.Nil(t, cibadak.Adjusted)

	cikidang := byVillage["Cikidang"].Assessment
	assert.Equal(t, domain.BandMedium, cikidang.Result.Band)
	assert.Equal(t, "0.450", cikidang.IndexDisplay)

	cisolok := byVillage["Cisolok"].Assessment
	assert.Equal(t, domain.BandLow, cisolok.Result.Band)
	require.NotNil(t, cisolok.Adjusted)
	assert.Equal(t, domain.BandHigh, cisolok.Band(), "drivers raise the effective band")
}

// TestPipelineTransformError verifies that a poison pill and an out-of-range
// request are skipped while valid requests still flow.
func TestPipelineTransformError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-poison")

	validPayload, err := json.Marshal(loadMockData(t)[0].Request())
	require.NoError(t, err)

	require.NoError(t, newProducer(t, broker).WriteMessages(ctx,
		kafkago.Message{Key: []byte("bad"), Value: []byte("not-json{{{"), Time: requestedAt},
		kafkago.Message{Key: []byte("range"), Value: []byte(`{"village":"X","exposure":2,"sensitivity":0,"adaptive_capacity":0,"hazard":0}`), Time: requestedAt},
		kafkago.Message{Key: []byte("good"), Value: validPayload, Time: requestedAt},
	))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	transformer := pipeline.NewTransformer(schema.MustNew(), nil, nil, discardLogger())
	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(reader, transformer, writer, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := newSinkConsumer(t, broker)
	am := readAssessed(ctx, t, consumer)
	assert.Equal(t, "Lembur Sawah", am.Assessment.Village)

	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err = consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no second message on sink topic")

	pipelineCancel()
	require.NoError(t, <-errCh)
}
