package bootstrap

import (
	"github.com/recoverykit/journey-engine/pkg/engagement"
	"github.com/recoverykit/journey-engine/pkg/signal"
	signalBuiltin "github.com/recoverykit/journey-engine/pkg/signal/builtin"
	"github.com/sirupsen/logrus"
)

// InitSignalProcessor creates a signal processor with the builtin mappers.
//
// ============================================================
// DEVELOPER: Register custom signal mappers here.
// ============================================================
// The processor logs each activity through the user's tracker
// and turns the outcome into a signal. Mappers retype signals
// per activity type so rules can subscribe to them:
// - journey activities with a day → journey_activity
// - tool activities               → tool_use
// ============================================================
func InitSignalProcessor(trackers *engagement.Factory) *signal.Processor {
	processor := signal.NewProcessor(trackers)

	signalBuiltin.RegisterBuiltinMappers(processor.GetMapperRegistry())

	logrus.Infof("initialized signal processor with %d mappers",
		processor.GetMapperRegistry().Count())

	return processor
}
