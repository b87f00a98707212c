package producers

import (
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"

	"github.com/chrisdamba/foodlens/internal/models"
)

func TestBrokers(t *testing.T) {
	got := Brokers(" a:9092, ,b:9092,")
	if len(got) != 2 || got[0] != "a:9092" || got[1] != "b:9092" {
		t.Fatalf("Brokers = %v", got)
	}
}

func TestNewSaramaConfig(t *testing.T) {
	cfg := NewSaramaConfig(models.KafkaConfig{SessionTimeoutMs: 10000})
	if cfg.Producer.RequiredAcks != sarama.WaitForAll || !cfg.Producer.Return.Successes {
		t.Fatal("producer must wait for all replicas and return successes")
	}
	if cfg.Consumer.Group.Session.Timeout != 10*time.Second {
		t.Fatalf("session timeout = %v", cfg.Consumer.Group.Session.Timeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("invalid config: %v", err)
	}
}

func TestWriteMessage(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageAndSucceed()
	mock.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewSaramaProducerFrom(mock, nil)
	if err := p.WriteMessage("analytics_snapshots", []byte(`{}`)); err != nil {
		t.Fatalf("first send: %v", err)
	}
	if err := p.WriteMessage("analytics_snapshots", []byte(`{}`)); !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Fatalf("second send: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := p.WriteMessage("analytics_snapshots", nil); !errors.Is(err, ErrProducerClosed) {
		t.Fatalf("write after close: %v", err)
	}
}
