package handlers

import (
	"edubba/application/commands/bus"
)

// RegisterAll binds every memory node command to its handler.
func RegisterAll(b *bus.CommandBus, create *CreateNodeHandler, update *UpdateNodeHandler, del *DeleteNodeHandler) error {
	for _, register := range []func() error{
		func() error { return bus.Handle(b, create.Handle) },
		func() error { return bus.Handle(b, update.HandleEscalate) },
		func() error { return bus.Handle(b, update.HandleMastery) },
		func() error { return bus.Handle(b, update.HandleRecall) },
		func() error { return bus.Handle(b, update.HandleLink) },
		func() error { return bus.Handle(b, del.Handle) },
	} {
		if err := register(); err != nil {
			return err
		}
	}
	return nil
}
