package replication

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"synnergy-kv/internal/resp"
)

func TestNormalizeReplicaAddrAcceptsSpaceSeparatedForm(t *testing.T) {
	cases := map[string]string{
		"127.0.0.1 6380": "127.0.0.1:6380",
		"localhost 6380": "localhost:6380",
		"127.0.0.1:6380": "127.0.0.1:6380",
	}
	for in, want := range cases {
		if got := normalizeReplicaAddr(in); got != want {
			t.Fatalf("normalizeReplicaAddr(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewClientNormalizesPrimaryAddr(t *testing.T) {
	c := NewClient("127.0.0.1 6380", 7000, &recordingApplier{}, nil)
	if c.primaryAddr != "127.0.0.1:6380" {
		t.Fatalf("expected normalized primaryAddr, got %q", c.primaryAddr)
	}
}

type recordingApplier struct {
	applied []*resp.Command
}

func (a *recordingApplier) Apply(cmd *resp.Command) error {
	a.applied = append(a.applied, cmd)
	return nil
}

// fakePrimary accepts one connection, performs the replica handshake from
// the primary side, then streams the given command frames and waits for a
// GETACK to be acknowledged.
func fakePrimary(t *testing.T, ln net.Listener, frames [][]byte, ackCh chan<- uint64) {
	conn, err := ln.Accept()
	if err != nil {
		t.Errorf("accept: %v", err)
		return
	}
	defer conn.Close()

	br := bufio.NewReader(conn)
	reader := resp.NewReader(br)

	// PING, REPLCONF listening-port, REPLCONF capa psync2, PSYNC ? -1
	for i := 0; i < 4; i++ {
		if _, err := reader.ReadCommand(); err != nil {
			t.Errorf("read handshake step %d: %v", i, err)
			return
		}
		switch i {
		case 3:
			conn.Write([]byte("+FULLRESYNC abc123 0\r\n$0\r\n"))
		default:
			if i == 0 {
				conn.Write([]byte("+PONG\r\n"))
			} else {
				conn.Write([]byte("+OK\r\n"))
			}
		}
	}

	for _, f := range frames {
		conn.Write(f)
	}

	if ackCh != nil {
		cmd, err := reader.ReadCommand()
		if err != nil {
			t.Errorf("read ack: %v", err)
			return
		}
		if len(cmd.Args) >= 2 {
			var offset uint64
			for _, c := range cmd.Args[1] {
				offset = offset*10 + uint64(c-'0')
			}
			ackCh <- offset
		}
	}
}

func TestClientHandshakeAndApply(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	setFrame := resp.EncodeRawCommand("SET", "k", "v")
	go fakePrimary(t, ln, [][]byte{setFrame}, nil)

	applier := &recordingApplier{}
	client := NewClient(ln.Addr().String(), 7000, applier, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- client.Run(ctx) }()

	deadline := time.Now().Add(time.Second)
	for len(applier.applied) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-errCh

	if len(applier.applied) != 1 || applier.applied[0].Name != "SET" {
		t.Fatalf("expected SET to be applied, got %+v", applier.applied)
	}
	if client.AppliedOffset() != uint64(len(setFrame)) {
		t.Fatalf("expected applied offset %d, got %d", len(setFrame), client.AppliedOffset())
	}
}

func TestClientRepliesToGetAck(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	getack := resp.EncodeRawCommand("REPLCONF", "GETACK", "*")
	ackCh := make(chan uint64, 1)
	go fakePrimary(t, ln, [][]byte{getack}, ackCh)

	applier := &recordingApplier{}
	client := NewClient(ln.Addr().String(), 7000, applier, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go client.Run(ctx)

	select {
	case offset := <-ackCh:
		if offset != uint64(len(getack)) {
			t.Fatalf("expected acked offset %d, got %d", len(getack), offset)
		}
	case <-time.After(time.Second):
		t.Fatalf("primary never received ACK")
	}
}
