// Package messaging mirrors session status into Redis and accepts
// recalibration commands from it.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"serial-controller/internal/logger"
	"serial-controller/internal/types"
)

const (
	DefaultAddr   = "127.0.0.1:6379"
	DefaultPrefix = "serial-controller"

	// CalibrateAll in a calibrate command targets every session.
	CalibrateAll = "all"

	defaultPollTimeout = 5 * time.Second
	errorBackoff       = time.Second
)

type Callbacks struct {
	// CalibrateCallback receives a port name or CalibrateAll.
	CalibrateCallback func(target string) error
}

// RedisClient keeps one hash per port, "<prefix>:<port>", and publishes the
// name of each updated field group on a channel of the same name.
type RedisClient struct {
	client    *redis.Client
	prefix    string
	callbacks Callbacks
	logger    *logger.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	pollTimeout time.Duration
}

func NewRedisClient(addr, prefix string, l *logger.Logger, callbacks Callbacks) *RedisClient {
	if addr == "" {
		addr = DefaultAddr
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisClient{
		client: redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   0,
		}),
		prefix:      prefix,
		callbacks:   callbacks,
		logger:      l,
		ctx:         ctx,
		cancel:      cancel,
		pollTimeout: defaultPollTimeout,
	}
}

// SetCallbacks replaces the command callbacks. Call before StartListening.
func (r *RedisClient) SetCallbacks(callbacks Callbacks) {
	r.callbacks = callbacks
}

func (r *RedisClient) Connect() error {
	r.logger.Infof("Connecting to Redis at %s", r.client.Options().Addr)
	if err := r.client.Ping(r.ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	r.logger.Infof("Connected to Redis")
	return nil
}

// CalibrateKey is the list that calibrate commands are pushed to.
func (r *RedisClient) CalibrateKey() string {
	return r.prefix + ":calibrate"
}

// HashKey returns the status hash of a port.
func (r *RedisClient) HashKey(port string) string {
	return r.prefix + ":" + port
}

// StartListening starts the command listener.
func (r *RedisClient) StartListening() {
	r.wg.Add(1)
	go r.listCommandListener(r.CalibrateKey(), r.handleCalibrateCommand)
}

func (r *RedisClient) listCommandListener(key string, handler func(string) error) {
	defer r.wg.Done()
	r.logger.Infof("Listening for commands on %s", key)

	for {
		// BRPOP with a timeout so cancellation is noticed even when idle.
		result, err := r.client.BRPop(r.ctx, r.pollTimeout, key).Result()
		if r.ctx.Err() != nil {
			r.logger.Debugf("Context cancelled, exiting %s listener", key)
			return
		}
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			r.logger.Warnf("Error reading from %s: %v", key, err)
			select {
			case <-r.ctx.Done():
				return
			case <-time.After(errorBackoff):
			}
			continue
		}

		if len(result) >= 2 { // BRPOP returns [key, value]
			value := result[1]
			r.logger.Debugf("Received command from %s: %s", key, value)
			if err := handler(value); err != nil {
				r.logger.Warnf("Error handling %s command: %v", key, err)
			}
		}
	}
}

func (r *RedisClient) handleCalibrateCommand(value string) error {
	if value == "" {
		return fmt.Errorf("empty calibrate target")
	}
	if r.callbacks.CalibrateCallback == nil {
		return nil
	}
	return r.callbacks.CalibrateCallback(value)
}

// publishHashSet writes fields to the port's hash and announces payload.
func (r *RedisClient) publishHashSet(port string, fields map[string]interface{}, payload string) error {
	hash := r.HashKey(port)
	pipe := r.client.Pipeline()
	pipe.HSet(r.ctx, hash, fields)
	pipe.Publish(r.ctx, hash, payload)
	_, err := pipe.Exec(r.ctx)
	return err
}

func (r *RedisClient) ConnectionChanged(port string, state types.ConnectionState) {
	err := r.publishHashSet(port, map[string]interface{}{
		"state":           string(state),
		"state:timestamp": time.Now().Format(time.RFC3339),
	}, "state")
	if err != nil {
		r.logger.Warnf("Failed to publish state of %s: %v", port, err)
	}
}

func (r *RedisClient) ModeChanged(port string, mode int, controller string) {
	err := r.publishHashSet(port, map[string]interface{}{
		"mode":      strconv.Itoa(mode),
		"mode:name": controller,
	}, "mode")
	if err != nil {
		r.logger.Warnf("Failed to publish mode of %s: %v", port, err)
	}
}

func (r *RedisClient) ChannelActivated(port string, channel byte, name string) {
	err := r.publishHashSet(port, map[string]interface{}{
		channelField(channel): name,
	}, "channel-active")
	if err != nil {
		r.logger.Warnf("Failed to publish channel %d of %s: %v", channel, port, err)
	}
}

// CalibrationReset clears the active markers of the reset channels.
func (r *RedisClient) CalibrationReset(port string, channels []byte) {
	hash := r.HashKey(port)
	fields := make([]string, len(channels))
	for i, ch := range channels {
		fields[i] = channelField(ch)
	}

	pipe := r.client.Pipeline()
	if len(fields) > 0 {
		pipe.HDel(r.ctx, hash, fields...)
	}
	pipe.Publish(r.ctx, hash, "calibration-reset")
	if _, err := pipe.Exec(r.ctx); err != nil {
		r.logger.Warnf("Failed to publish calibration reset of %s: %v", port, err)
	}
}

func channelField(channel byte) string {
	return fmt.Sprintf("channel:%d:active", channel)
}

func (r *RedisClient) Close() error {
	r.logger.Infof("Closing Redis client")
	r.cancel()

	// Wait for the listener to finish with a timeout
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		r.logger.Warnf("Timeout waiting for Redis listener to finish")
	}

	return r.client.Close()
}
