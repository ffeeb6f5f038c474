package redis

import (
	"strconv"
	"time"

	"github.com/mediocregopher/radix/v3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var ErrNotConnected = errors.New("redis client not connected")

// Config structure
type Config struct {
	Enabled  bool
	Address  string
	PoolSize int `mapstructure:"pool_size"`
	TTL      time.Duration
}

// Client wraps a radix connection pool
type Client struct {
	cfg  Config
	pool *radix.Pool
}

func NewClient(cfg Config) *Client {
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 10
	}
	return &Client{cfg: cfg}
}

func (c *Client) Connect() error {
	pool, err := radix.NewPool("tcp", c.cfg.Address, c.cfg.PoolSize)
	if err != nil {
		return errors.Wrapf(err, "connect to redis at %s", c.cfg.Address)
	}
	c.pool = pool
	log.Info().Str("section", "redis").Str("address", c.cfg.Address).Int("pool_size", c.cfg.PoolSize).Msg("Connected to redis")
	return nil
}

func (c *Client) Disconnect() error {
	if c.pool == nil {
		return nil
	}
	return c.pool.Close()
}

// Exec runs a single command and decodes the reply into rcv
func (c *Client) Exec(rcv interface{}, cmd string, args ...string) error {
	if c.pool == nil {
		return ErrNotConnected
	}
	return c.pool.Do(radix.Cmd(rcv, cmd, args...))
}

// Get returns the value stored at key; found is false when the key does not exist
func (c *Client) Get(key string) (value []byte, found bool, err error) {
	mn := radix.MaybeNil{Rcv: &value}
	if err = c.Exec(&mn, "GET", key); err != nil {
		return nil, false, err
	}
	return value, !mn.Nil, nil
}

// SetEx stores value at key with the given expiration
func (c *Client) SetEx(key string, ttl time.Duration, value []byte) error {
	seconds := int64(ttl / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return c.Exec(nil, "SETEX", key, strconv.FormatInt(seconds, 10), string(value))
}

// Del removes key
func (c *Client) Del(key string) error {
	return c.Exec(nil, "DEL", key)
}
