package platform

// sharedThenLocal is the two-part bring-up shape shared by the
// irqchip, IPI and timer phases: the cold boot hart performs the
// one-time shared step before its own per-hart step, every other hart
// runs only the per-hart step. A shared-step failure is returned
// unchanged without attempting the local step. The boot protocol
// guarantees the shared step completes before any hart reaches the
// local step.
func sharedThenLocal(coldBoot bool, shared, local func() error) error {
	if coldBoot {
		if err := shared(); err != nil {
			return err
		}
	}
	return local()
}
