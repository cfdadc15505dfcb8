package events

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"os"
	"strings"
	"testing"

	"github.com/dulfinne/User-service/shared/models"
	"github.com/shopspring/decimal"
)

func TestBalanceUpdatedEventPayload(t *testing.T) {
	event := NewEvent(BalanceUpdated, BalanceUpdatedEvent{
		AccountID:  "acc-1",
		Username:   "alice123",
		Operation:  OperationDebit,
		Amount:     models.NewMoney(decimal.NewFromInt(20)),
		NewBalance: models.NewMoney(decimal.NewFromInt(30)),
		Changes:    []models.FieldChange{{Field: "balance", Old: "50.00", New: "30.00"}},
	})

	raw, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(raw)

	for _, want := range []string{
		`"type":"balance.updated"`,
		`"operation":"debit"`,
		`"amount":20.00`,
		`"newBalance":30.00`,
		`"changes":[{"field":"balance","old":"50.00","new":"30.00"}]`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("payload %s missing %s", body, want)
		}
	}
	if event.Timestamp.IsZero() || event.Timestamp.Location().String() != "UTC" {
		t.Errorf("expected a UTC timestamp, got %v", event.Timestamp)
	}
}

func TestNopPublisher(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	var p Publisher = NopPublisher{}
	for i := 0; i < 3; i++ {
		if err := p.Publish(context.Background(), AccountEventsStream, AccountCreated, AccountCreatedEvent{}); err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
	}
	if buf.Len() != 0 {
		t.Errorf("expected no log output, got %q", buf.String())
	}
}
