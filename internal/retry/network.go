package retry

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrNoConnectivity is returned when the network did not come back in time
var ErrNoConnectivity = errors.New("no network connectivity")

// Monitor tracks whether the network is reachable
type Monitor struct {
	mu        sync.Mutex
	connected bool
	waiters   []chan struct{}
}

// NewMonitor creates a monitor in the given initial state
func NewMonitor(connected bool) *Monitor {
	return &Monitor{connected: connected}
}

// Connected reports the current state
func (m *Monitor) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// SetConnected updates the state and wakes everyone waiting for connectivity
func (m *Monitor) SetConnected(connected bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = connected
	if !connected {
		return
	}
	for _, w := range m.waiters {
		close(w)
	}
	m.waiters = nil
}

// WaitConnected blocks until the network is up, ctx is done or timeout passes.
func (m *Monitor) WaitConnected(ctx context.Context, timeout time.Duration) error {
	m.mu.Lock()
	if m.connected {
		m.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	m.waiters = append(m.waiters, ch)
	m.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		m.dropWaiter(ch)
		return ctx.Err()
	case <-timer.C:
		m.dropWaiter(ch)
		return ErrNoConnectivity
	}
}

func (m *Monitor) dropWaiter(ch chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, w := range m.waiters {
		if w == ch {
			m.waiters = append(m.waiters[:i], m.waiters[i+1:]...)
			return
		}
	}
}

func (m *Monitor) pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.waiters)
}

// Watch dials addr every interval and updates the monitor until ctx is done.
func (m *Monitor) Watch(ctx context.Context, addr string, interval time.Duration, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("connectivity")

	check := func() {
		dialer := net.Dialer{Timeout: interval / 2}
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		up := err == nil
		if up {
			conn.Close()
		}
		if up != m.Connected() {
			logger.Info("connectivity changed", zap.Bool("connected", up), zap.String("addr", addr))
		}
		m.SetConnected(up)
	}

	check()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}

// IsNetworkError reports whether err came from the network layer
func IsNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// NetworkAware retries like Policy but, after a network failure while the
// monitor reports no connectivity, waits for the network instead of
// spending attempts.
type NetworkAware struct {
	Policy    Policy
	Monitor   *Monitor
	MaxWait   time.Duration
	IsNetwork func(error) bool
}

// NewNetworkAware creates a network-aware retrier with a 30 second connectivity wait
func NewNetworkAware(p Policy, m *Monitor) *NetworkAware {
	return &NetworkAware{Policy: p, Monitor: m, MaxWait: 30 * time.Second, IsNetwork: IsNetworkError}
}

// Do runs fn under the policy
func (n *NetworkAware) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := DoNetworkAware(ctx, n, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoNetworkAware is NetworkAware.Do for functions that return a value
func DoNetworkAware[T any](ctx context.Context, n *NetworkAware, fn func(ctx context.Context) (T, error)) (T, error) {
	return run(ctx, n.Policy, n.waitForNetwork, fn)
}

func (n *NetworkAware) waitForNetwork(ctx context.Context, err error) error {
	if n.Monitor == nil || n.IsNetwork == nil || !n.IsNetwork(err) || n.Monitor.Connected() {
		return nil
	}
	return n.Monitor.WaitConnected(ctx, n.MaxWait)
}
