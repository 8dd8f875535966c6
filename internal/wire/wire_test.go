package wire

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Seintian/postoffice/internal/errors"
	"github.com/Seintian/postoffice/internal/shm"
)

func TestEncodeDecode(t *testing.T) {
	arrival := time.Unix(0, 1_757_000_000_123_456_789)

	tests := []struct {
		name string
		msg  Message
	}{
		{"join queue vip", NewJoinQueue(shm.ServiceBanking, 42, true)},
		{"join ack", NewJoinAck(shm.ServiceBanking, 1001)},
		{"get work", NewGetWork(shm.ServiceWatches, 7)},
		{"work item", NewWorkItem(shm.ServiceWatches, 1001, 42, true, arrival)},
		{"no work", NewNoWork(shm.ServicePackages)},
		{"ticket request", NewTicketRequest(shm.ServiceLetters, 9, false)},
		{"ticket response", NewTicketResponse(55)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(Encode(tt.msg))
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if got != tt.msg {
				t.Errorf("Round trip = %+v, want %+v", got, tt.msg)
			}
		})
	}
}

func TestDecode_UnknownType(t *testing.T) {
	var buf [MessageSize]byte
	buf[0] = 0xEE

	_, err := Decode(buf)
	if !errors.Is(err, errors.ErrMalformedMessage) {
		t.Errorf("Decode of unknown type returned %v, want ErrMalformedMessage", err)
	}

	buf[0] = 0
	if _, err := Decode(buf); !errors.Is(err, errors.ErrMalformedMessage) {
		t.Errorf("Decode of zero type returned %v, want ErrMalformedMessage", err)
	}
}

func TestMessageFlags(t *testing.T) {
	if !NewJoinQueue(shm.ServicePackages, 1, true).VIP() {
		t.Error("VIP join should carry FlagVIP")
	}
	if NewJoinQueue(shm.ServicePackages, 1, false).VIP() {
		t.Error("Ordinary join should not carry FlagVIP")
	}
	if !NewNoWork(shm.ServicePackages).Empty() {
		t.Error("No-work response should carry FlagEmpty")
	}
	if NewWorkItem(shm.ServicePackages, 1, 1, false, time.Now()).Empty() {
		t.Error("Work item should not carry FlagEmpty")
	}
}

func TestWorkItem_CarriesArrival(t *testing.T) {
	arrival := time.Unix(1_757_000_000, 42)
	m := NewWorkItem(shm.ServiceFinancial, 3, 8, false, arrival)

	if !m.ArrivalTime().Equal(arrival) {
		t.Errorf("ArrivalTime = %v, want %v", m.ArrivalTime(), arrival)
	}
}

func TestReadWriteMessage(t *testing.T) {
	var conn bytes.Buffer

	sent := []Message{
		NewJoinQueue(shm.ServiceLetters, 11, false),
		NewJoinAck(shm.ServiceLetters, 12),
		NewGetWork(shm.ServiceLetters, 2),
	}
	for _, m := range sent {
		if err := WriteMessage(&conn, m); err != nil {
			t.Fatalf("WriteMessage failed: %v", err)
		}
	}

	if conn.Len() != len(sent)*MessageSize {
		t.Errorf("Stream holds %d bytes, want %d fixed frames", conn.Len(), len(sent))
	}

	for i, want := range sent {
		got, err := ReadMessage(&conn)
		if err != nil {
			t.Fatalf("ReadMessage %d failed: %v", i, err)
		}
		if got != want {
			t.Errorf("Message %d = %+v, want %+v", i, got, want)
		}
	}

	if _, err := ReadMessage(&conn); err != io.EOF {
		t.Errorf("Read on drained stream returned %v, want io.EOF", err)
	}
}

func TestReadMessage_TornFrame(t *testing.T) {
	frame := Encode(NewJoinAck(shm.ServiceBanking, 3))
	conn := bytes.NewReader(frame[:MessageSize-5])

	_, err := ReadMessage(conn)
	if !errors.Is(err, errors.ErrMalformedMessage) {
		t.Errorf("Torn frame returned %v, want ErrMalformedMessage", err)
	}
}

func TestBrokerSocketPath_Home(t *testing.T) {
	t.Setenv("HOME", "/home/clerk")

	got := BrokerSocketPath()
	want := filepath.Join("/home/clerk", ".postoffice-broker.sock")
	if got != want {
		t.Errorf("BrokerSocketPath = %q, want %q", got, want)
	}
}

func TestBrokerSocketPath_TempFallback(t *testing.T) {
	t.Setenv("HOME", "")

	got := BrokerSocketPath()
	if !strings.HasPrefix(got, os.TempDir()) {
		t.Errorf("Fallback path %q should live under the temp directory", got)
	}
	if !strings.Contains(got, "postoffice-broker.") || !strings.HasSuffix(got, ".sock") {
		t.Errorf("Fallback path %q should be pid-qualified", got)
	}
}

func TestBridgeSocketPath_Home(t *testing.T) {
	t.Setenv("HOME", "/home/clerk")

	want := filepath.Join("/home/clerk", ".postoffice-bridge.sock")
	if got := BridgeSocketPath(); got != want {
		t.Errorf("BridgeSocketPath = %q, want %q", got, want)
	}
}
