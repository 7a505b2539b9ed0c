package main

// runTimer raises the sampling tick. The slot holds one tick, a tick that
// finds it full is dropped.
func runTimer(rt runtimeConfig) {
	defer func() {
		rt.logger.Println("exiting runTimer")
	}()

	period := rt.settings.GetDuration(sSamplingRate)
	for {
		if rt.comms.quitting() {
			return
		}
		rt.clock.Sleep(period)
		select {
		case rt.comms.tick <- struct{}{}:
		default:
		}
	}
}
