package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
)

func putU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func TestReadCommandUpload(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(SigUpload)
	putU32(&buf, 5)
	buf.WriteString("a.wav")
	body := bytes.Repeat([]byte{0x7f}, 9000) // spans multiple 4096B reads
	putU32(&buf, uint32(len(body)))
	buf.Write(body)

	cmd, err := ReadCommand(&buf)
	if err != nil {
		t.Fatalf("ReadCommand: %v", err)
	}
	up, ok := cmd.(*Upload)
	if !ok {
		t.Fatalf("expected *Upload, got %T", cmd)
	}
	if up.Name != "a.wav" {
		t.Fatalf("unexpected name %q", up.Name)
	}
	if !bytes.Equal(up.Body, body) {
		t.Fatalf("body mismatch: got %d bytes", len(up.Body))
	}
}

func TestReadCommandEnqueue(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(SigEnqueue)
	putU32(&buf, 5)
	buf.WriteString("b.wav")

	cmd, err := ReadCommand(&buf)
	if err != nil {
		t.Fatalf("ReadCommand: %v", err)
	}
	enq, ok := cmd.(*Enqueue)
	if !ok {
		t.Fatalf("expected *Enqueue, got %T", cmd)
	}
	if enq.Name != "b.wav" {
		t.Fatalf("unexpected name %q", enq.Name)
	}
}

func TestReadCommandEmptyIsEOF(t *testing.T) {
	_, err := ReadCommand(&bytes.Buffer{})
	if !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestReadCommandShortReadIsEOF(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(SigUpload)
	putU32(&buf, 10)
	buf.WriteString("short") // fewer bytes than name_len promised

	_, err := ReadCommand(&buf)
	if !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF on short read, got %v", err)
	}
}

func TestReadCommandUnknownSignature(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte('z')

	_, err := ReadCommand(&buf)
	var sigErr ErrUnknownSignature
	if !errors.As(err, &sigErr) {
		t.Fatalf("expected ErrUnknownSignature, got %v", err)
	}
}
