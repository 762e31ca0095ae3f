package artnet

import (
	"bytes"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-show/internal/command"
)

func TestPacket(t *testing.T) {
	pkt, err := Packet(0x0102, 7, []command.Command{command.Byte(255), nil, command.RGB{R: 9}})
	if err != nil {
		t.Fatalf("Packet() error = %v", err)
	}

	if !bytes.Equal(pkt[:8], []byte("Art-Net\x00")) {
		t.Errorf("id = %q", pkt[:8])
	}
	if pkt[8] != 0x00 || pkt[9] != 0x50 {
		t.Errorf("opcode = %x %x, want 00 50", pkt[8], pkt[9])
	}
	if pkt[10] != 0 || pkt[11] != 14 {
		t.Errorf("version = %d.%d, want 0.14", pkt[10], pkt[11])
	}
	if pkt[12] != 7 {
		t.Errorf("sequence = %d, want 7", pkt[12])
	}
	if pkt[14] != 0x02 || pkt[15] != 0x01 {
		t.Errorf("port address = %x %x, want 02 01", pkt[14], pkt[15])
	}
	// Three slots padded to four.
	if pkt[16] != 0 || pkt[17] != 4 || len(pkt) != headerSize+4 {
		t.Errorf("length = %d (packet %d bytes), want 4", int(pkt[16])<<8|int(pkt[17]), len(pkt))
	}
	if got := pkt[headerSize:]; !bytes.Equal(got, []byte{255, 0, 9, 0}) {
		t.Errorf("data = %v, want [255 0 9 0]", got)
	}
}

func TestPacket_Bounds(t *testing.T) {
	tests := []struct {
		name string
		cmds []command.Command
		want int
	}{
		{"empty", nil, headerSize + 2},
		{"odd", make([]command.Command, 5), headerSize + 6},
		{"oversized", make([]command.Command, 600), headerSize + maxSlots},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkt, err := Packet(0, 1, tt.cmds)
			if err != nil {
				t.Fatalf("Packet() error = %v", err)
			}
			if len(pkt) != tt.want {
				t.Errorf("packet length = %d, want %d", len(pkt), tt.want)
			}
		})
	}
}

func TestModule_SendsUniversePerChainIndex(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenPacket() error = %v", err)
	}
	defer pc.Close()

	m := New(Config{Name: "stage", Target: pc.LocalAddr().String(), Universe: 4})
	if err := m.UpdateState(nil); !errors.Is(err, ErrNotStarted) {
		t.Errorf("UpdateState() before Start = %v, want ErrNotStarted", err)
	}
	if err := m.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer m.Stop()

	for i := range 2 {
		m.SetChainIndex(i)
		if err := m.UpdateState([]command.Command{command.Byte(uint8(i + 1))}); err != nil {
			t.Fatalf("UpdateState(%d) error = %v", i, err)
		}
	}

	buf := make([]byte, 1024)
	_ = pc.SetReadDeadline(time.Now().Add(2 * time.Second))
	for i := range 2 {
		n, _, err := pc.ReadFrom(buf)
		if err != nil {
			t.Fatalf("ReadFrom() error = %v", err)
		}
		pkt := buf[:n]
		if got := int(pkt[14]) | int(pkt[15])<<8; got != 4+i {
			t.Errorf("packet %d universe = %d, want %d", i, got, 4+i)
		}
		if pkt[12] != 1 {
			t.Errorf("packet %d sequence = %d, want 1", i, pkt[12])
		}
		if pkt[headerSize] != uint8(i+1) {
			t.Errorf("packet %d level = %d, want %d", i, pkt[headerSize], i+1)
		}
	}
}

func TestModule_PausedSendsNothing(t *testing.T) {
	m := New(Config{Name: "stage", Target: "127.0.0.1"})
	if m.target != "127.0.0.1:6454" {
		t.Errorf("target = %q, want default port", m.target)
	}
	m.Pause()
	// Not started: a paused module must not even touch the socket.
	if err := m.UpdateState([]command.Command{command.Byte(1)}); err != nil {
		t.Errorf("UpdateState() while paused = %v, want nil", err)
	}
}

func TestModule_UniverseRange(t *testing.T) {
	m := New(Config{Name: "stage", Target: "127.0.0.1", Universe: maxUniverse})
	m.SetChainIndex(1)
	if err := m.UpdateState(nil); !errors.Is(err, ErrUniverse) {
		t.Errorf("UpdateState() = %v, want ErrUniverse", err)
	}
}
