//go:build linux

package netfd

import (
	"net"
	"strconv"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func TestListenAcceptAndConnRoundTrip(t *testing.T) {
	fd, err := Listen(0)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer unix.Close(fd)

	port, err := Port(fd)
	if err != nil {
		t.Fatalf("Port: %v", err)
	}

	dialDone := make(chan error, 1)
	go func() {
		conn, err := net.DialTimeout("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)), 2*time.Second)
		if err != nil {
			dialDone <- err
			return
		}
		defer conn.Close()
		_, err = conn.Write([]byte("hello"))
		dialDone <- err
	}()

	var connFd int
	var acceptErr error
	for i := 0; i < 100; i++ {
		connFd, _, acceptErr = Accept(fd)
		if acceptErr == nil {
			break
		}
		if acceptErr == unix.EAGAIN {
			time.Sleep(10 * time.Millisecond)
			continue
		}
		t.Fatalf("Accept: %v", acceptErr)
	}
	if acceptErr != nil {
		t.Fatalf("Accept never succeeded: %v", acceptErr)
	}
	defer unix.Close(connFd)

	if err := <-dialDone; err != nil {
		t.Fatalf("dial/write: %v", err)
	}

	c := Conn{Fd: connFd}
	buf := make([]byte, 16)
	var n int
	for i := 0; i < 100; i++ {
		n, err = c.Read(buf)
		if err == nil && n > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if n == 0 {
		t.Fatalf("expected to read data, got n=0 err=%v", err)
	}
	if string(buf[:n]) != "hello" {
		t.Fatalf("unexpected payload: %q", buf[:n])
	}
}

func TestEpollAddClientRearmAndRemove(t *testing.T) {
	ep, err := NewEpoll()
	if err != nil {
		t.Fatalf("NewEpoll: %v", err)
	}
	defer ep.Close()

	fds := make([]int, 2)
	if err := unix.Pipe(fds); err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	if err := unix.SetNonblock(fds[0], true); err != nil {
		t.Fatalf("set nonblock: %v", err)
	}

	if err := ep.AddClient(fds[0]); err != nil {
		t.Fatalf("AddClient: %v", err)
	}

	if _, err := unix.Write(fds[1], []byte("x")); err != nil {
		t.Fatalf("write to pipe: %v", err)
	}

	events := make([]unix.EpollEvent, 8)
	ready, err := ep.Wait(events)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if len(ready) != 1 || int(ready[0].Fd) != fds[0] {
		t.Fatalf("unexpected ready set: %+v", ready)
	}

	if err := ep.Rearm(fds[0]); err != nil {
		t.Fatalf("Rearm: %v", err)
	}
	if err := ep.Remove(fds[0]); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := ep.Remove(fds[0]); err != nil {
		t.Fatalf("Remove should be idempotent: %v", err)
	}
}
