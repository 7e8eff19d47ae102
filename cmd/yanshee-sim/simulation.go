package main

import (
	"log"
	"time"

	"github.com/ubtedu/yanshee-go/internal/simulator"
	"github.com/ubtedu/yanshee-go/pkg/command"
	"github.com/ubtedu/yanshee-go/pkg/wire"
)

// runStatusReport logs the simulated robot state until stop is closed.
func runStatusReport(sim *simulator.Robot, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastCommands int
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			commands := 0
			for _, c := range []wire.Command{wire.CmdQuery, wire.CmdSet, wire.CmdServo, wire.CmdAction, wire.CmdVoice, wire.CmdTransparent} {
				commands += sim.Received(c)
			}

			log.Printf("[SIM] clients=%d commands=%d (+%d) heartbeats=%d volume=%d",
				sim.Clients(), commands, commands-lastCommands, sim.Received(wire.CmdHeartbeat), sim.Volume())
			log.Printf("[SIM] servos=%X", sim.Servos())
			if a := sim.Action(); a != "" {
				log.Printf("[SIM] running action %q", a)
			}
			for _, group := range command.LEDTypes {
				if led, ok := sim.LED(group); ok {
					log.Printf("[SIM] led %s: %s %s", group, led.Color, led.Mode)
				}
			}
			lastCommands = commands
		}
	}
}
