package mailer

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type DispatcherConfig struct {
	QueueSize       int           `yaml:"queue_size" env:"MAIL_QUEUE_SIZE" env-default:"100"`
	Workers         int           `yaml:"workers" env:"MAIL_WORKERS" env-default:"2"`
	MaxRetries      uint64        `yaml:"max_retries" env:"MAIL_MAX_RETRIES" env-default:"3"`
	InitialInterval time.Duration `yaml:"initial_interval" env:"MAIL_RETRY_INTERVAL" env-default:"500ms"`
	DrainTimeout    time.Duration `yaml:"drain_timeout" env:"MAIL_DRAIN_TIMEOUT" env-default:"10s"`
}

func (c *DispatcherConfig) ensureDefaults() {
	if c.QueueSize <= 0 {
		c.QueueSize = 100
	}
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.InitialInterval <= 0 {
		c.InitialInterval = 500 * time.Millisecond
	}
	if c.DrainTimeout <= 0 {
		c.DrainTimeout = 10 * time.Second
	}
}

// Dispatcher delivers queued messages with a fixed pool of workers.
// Failed deliveries are retried with exponential backoff and then logged;
// nothing is reported back to the sender.
type Dispatcher struct {
	cfg       DispatcherConfig
	transport Transport
	queue     chan *Message
	logger    *zap.Logger
}

func NewDispatcher(cfg DispatcherConfig, transport Transport, logger *zap.Logger) *Dispatcher {
	cfg.ensureDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		cfg:       cfg,
		transport: transport,
		queue:     make(chan *Message, cfg.QueueSize),
		logger:    logger,
	}
}

// Enqueue adds msg to the queue without blocking. Returns false if the queue is full.
func (d *Dispatcher) Enqueue(msg *Message) bool {
	select {
	case d.queue <- msg:
		return true
	default:
		return false
	}
}

// Run starts the workers and blocks until ctx is done. Whatever is still
// queued at that point gets one more delivery pass bounded by DrainTimeout.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("starting mail dispatcher", zap.Int("workers", d.cfg.Workers))

	// in-flight deliveries outlive ctx by at most DrainTimeout
	inflight, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()
	stop := context.AfterFunc(ctx, func() {
		time.AfterFunc(d.cfg.DrainTimeout, cancel)
	})
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < d.cfg.Workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case msg := <-d.queue:
					d.deliver(inflight, msg)
				}
			}
		})
	}
	err := g.Wait()

	d.drain()
	d.logger.Info("mail dispatcher stopped")
	return err
}

func (d *Dispatcher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.DrainTimeout)
	defer cancel()
	for {
		select {
		case msg := <-d.queue:
			d.deliver(ctx, msg)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, msg *Message) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.cfg.InitialInterval

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		err := d.transport.Deliver(ctx, msg)
		if err != nil {
			d.logger.Debug("mail delivery attempt failed",
				zap.String("kind", string(msg.Kind)),
				zap.String("email", msg.To),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(b, d.cfg.MaxRetries), ctx))

	if err != nil {
		d.logger.Error("error sending mail",
			zap.String("kind", string(msg.Kind)),
			zap.String("email", msg.To),
			zap.Int("attempts", attempt),
			zap.Error(err),
		)
		mailDeliveries.WithLabelValues(string(msg.Kind), "failed").Inc()
		return
	}
	d.logger.Info("mail sent", zap.String("kind", string(msg.Kind)), zap.String("email", msg.To))
	mailDeliveries.WithLabelValues(string(msg.Kind), "sent").Inc()
}
