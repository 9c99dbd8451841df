package notification

import (
	"context"

	"github.com/rs/zerolog"
)

// DeliveryWorker drains a DeliverySource into a Deliverer in the background.
type DeliveryWorker struct {
	source    DeliverySource
	deliverer *Deliverer
	log       zerolog.Logger
	done      chan struct{}
	cancel    context.CancelFunc
}

func NewDeliveryWorker(source DeliverySource, deliverer *Deliverer, log zerolog.Logger) *DeliveryWorker {
	return &DeliveryWorker{
		source:    source,
		deliverer: deliverer,
		log:       log,
		done:      make(chan struct{}),
	}
}

func (w *DeliveryWorker) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.log.Info().Msg("📬 delivery worker started")

	go func() {
		defer close(w.done)

		if err := w.source.Consume(cctx, w.deliverer.Deliver); err != nil {
			w.log.Error().Err(err).Msg("delivery worker stopped with error")
			return
		}
		w.log.Info().Msg("🛑 delivery worker stopped")
	}()
}

// Stop cancels consumption and waits for the in-flight delivery to finish.
func (w *DeliveryWorker) Stop() {
	if w.cancel != nil {
		w.cancel()
		<-w.done
	}
}
