// Package singleinstance keeps one resident overlay per user session. The
// resident listens on a loopback TCP port and answers PING and QUIT; a second
// launch either backs off or asks the resident to quit and takes over.
package singleinstance

import (
	"bufio"
	"context"
	"errors"
	"log"
	"net"
	"os"
	"strconv"
	"sync"
	"time"
)

const (
	// PortEnvVar moves the port range, e.g. when another program owns it.
	PortEnvVar = "INSTANCE_PORT"

	defaultBasePort = 49650
	// portCount ports are scanned, so a few unrelated listeners in the range
	// do not stop the overlay from starting.
	portCount       = 11

	residentHost = "127.0.0.1"
	pingRequest  = "PING\n"
	pongResponse = "PONG\n"
	quitRequest  = "QUIT\n"
	byeResponse  = "BYE\n"
)

// ErrAlreadyRunning is returned by Acquire when a resident answers on the port range.
var ErrAlreadyRunning = errors.New("another instance is already running")

// Guard is held by the resident for its lifetime.
type Guard struct {
	lis  net.Listener
	port int
	quit chan struct{}

	quitOnce  sync.Once
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Acquire makes this process the resident. It fails with ErrAlreadyRunning if
// another resident responds, and otherwise binds the first free port.
func Acquire(ctx context.Context) (*Guard, error) {
	if port, ok := DetectResidentPort(ctx); ok {
		log.Printf("singleinstance: resident found on port %d", port)
		return nil, ErrAlreadyRunning
	}

	start, end := portRange()
	var lastErr error
	for port := start; port <= end; port++ {
		addr := net.JoinHostPort(residentHost, strconv.Itoa(port))
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			lastErr = err
			continue
		}
		g := &Guard{lis: lis, port: port, quit: make(chan struct{})}
		log.Printf("singleinstance: listening on %s", addr)
		g.wg.Add(1)
		go g.acceptLoop()
		return g, nil
	}
	return nil, lastErr
}

// Port returns the bound port.
func (g *Guard) Port() int { return g.port }

// QuitRequested is closed when another launch asks this resident to quit.
func (g *Guard) QuitRequested() <-chan struct{} { return g.quit }

// Close releases the port. It is safe to call more than once.
func (g *Guard) Close() error {
	var err error
	g.closeOnce.Do(func() {
		err = g.lis.Close()
		g.wg.Wait()
	})
	return err
}

func (g *Guard) acceptLoop() {
	defer g.wg.Done()
	for {
		c, err := g.lis.Accept()
		if err != nil {
			return
		}
		g.serve(c)
	}
}

func (g *Guard) serve(c net.Conn) {
	defer c.Close()
	_ = c.SetDeadline(time.Now().Add(3 * time.Second))
	line, _ := bufio.NewReader(c).ReadString('\n')
	remote := c.RemoteAddr().String()
	switch line {
	case pingRequest:
		_, _ = c.Write([]byte(pongResponse))
	case quitRequest:
		log.Printf("singleinstance: QUIT from %s", remote)
		_, _ = c.Write([]byte(byeResponse))
		g.quitOnce.Do(func() { close(g.quit) })
	default:
		log.Printf("singleinstance: unexpected request %q from %s", line, remote)
	}
}

// DetectResidentPort scans the port range and returns (port, true) if a resident responds to PING.
func DetectResidentPort(ctx context.Context) (int, bool) {
	timeout := dialTimeout(ctx, 300*time.Millisecond)
	start, end := portRange()
	for port := start; port <= end; port++ {
		addr := net.JoinHostPort(residentHost, strconv.Itoa(port))
		if resp, err := exchange(addr, pingRequest, timeout); err == nil && resp == pongResponse {
			return port, true
		}
	}
	return 0, false
}

// RequestQuit asks the resident, if any, to exit. It reports whether one acknowledged.
func RequestQuit(ctx context.Context) (bool, error) {
	port, ok := DetectResidentPort(ctx)
	if !ok {
		return false, nil
	}
	addr := net.JoinHostPort(residentHost, strconv.Itoa(port))
	resp, err := exchange(addr, quitRequest, dialTimeout(ctx, 2*time.Second))
	if err != nil {
		return false, err
	}
	return resp == byeResponse, nil
}

// AcquireReplacing asks any resident to quit and then acquires, retrying
// until the old resident has released its port or ctx ends.
func AcquireReplacing(ctx context.Context) (*Guard, error) {
	if _, err := RequestQuit(ctx); err != nil {
		log.Printf("singleinstance: quit request failed: %v", err)
	}
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		g, err := Acquire(ctx)
		if !errors.Is(err, ErrAlreadyRunning) {
			return g, err
		}
		select {
		case <-ctx.Done():
			return nil, ErrAlreadyRunning
		case <-ticker.C:
		}
	}
}

func exchange(addr, request string, timeout time.Duration) (string, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return "", err
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))
	w := bufio.NewWriter(conn)
	if _, err := w.WriteString(request); err != nil {
		return "", err
	}
	if err := w.Flush(); err != nil {
		return "", err
	}
	return bufio.NewReader(conn).ReadString('\n')
}

func dialTimeout(ctx context.Context, def time.Duration) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 && d < def {
			return d
		}
	}
	return def
}

// portRange returns the inclusive range [base, base+portCount-1]. The base is
// INSTANCE_PORT when it is a valid unprivileged port, else defaultBasePort.
func portRange() (int, int) {
	base := defaultBasePort
	if v := os.Getenv(PortEnvVar); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil && n >= 1024 && n+portCount-1 <= 65535 {
			base = n
		} else {
			log.Printf("singleinstance: ignoring %s=%q, using %d", PortEnvVar, v, defaultBasePort)
		}
	}
	return base, base + portCount - 1
}
