// Command demo wires the polyphonic voice-management core end to end
// against an in-memory fake ChannelSoundfont that bakes sine bursts for
// soft notes and filtered sawtooth bursts for hard ones. It is an
// illustration of how a host channel would drive pkg/channel and
// pkg/limiter, not a product synthesizer CLI.
package main

import (
	"os"

	"github.com/charmbracelet/log"

	"github.com/opd-ai/polysynth/pkg/audio"
	"github.com/opd-ai/polysynth/pkg/channel"
	"github.com/opd-ai/polysynth/pkg/limiter"
	"github.com/opd-ai/polysynth/pkg/monitor"
	"github.com/opd-ai/polysynth/pkg/realtime"
)

const (
	sampleRate      = 48000.0
	framesPerBlock  = 256
	demoChannels    = 2 // stereo
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	realtime.MarkAudioThread() // this demo drives render_to from the main goroutine

	sf := newSineSoundfont(sampleRate)
	counter := channel.NewPolyphonyCounter()
	pool := audio.NewBufferPool()
	metrics := monitor.NewPerformanceMetrics(sampleRate, framesPerBlock)
	allocs := monitor.NewAllocationTracker()

	options := channel.ChannelInitOptions{
		FadeOutKilling:    true,
		MaxVoicesPerFrame: 32,
	}

	keys := make([]*channel.KeyData, 128)
	for i := range keys {
		keys[i] = channel.NewKeyData(uint8(i), options, counter, pool)
	}
	keys[60].SetLogger(logger)
	keys[64].SetLogger(logger)
	keys[60].SetMetrics(metrics)
	keys[64].SetMetrics(metrics)

	vol := limiter.NewVolumeLimiter(demoChannels)
	control := &audio.ControlData{}

	mix := make([]float32, framesPerBlock*demoChannels)
	renderBlocks := func(n int) {
		for b := 0; b < n; b++ {
			allocs.StartBuffer()
			for i := range mix {
				mix[i] = 0
			}
			keys[60].RenderTo(mix)
			keys[64].RenderTo(mix)
			vol.Limit(mix)
			allocs.EndBuffer()
		}
	}

	logger.Info("chord on", "keys", []int{60, 64})
	keys[60].SendEvent(channel.On(100), control, sf, nil)
	keys[64].SendEvent(channel.On(90), control, sf, nil)
	renderBlocks(20)
	logger.Info("polyphony after attack", "count", counter.Load())

	keys[60].SendEvent(channel.Off(), control, sf, nil)
	renderBlocks(20)
	logger.Info("polyphony after one release", "count", counter.Load())

	keys[64].SendEvent(channel.AllKilled(), control, sf, nil)
	renderBlocks(5)
	logger.Info("polyphony after kill", "count", counter.Load())

	logger.Info("final mix sample", "frame0_L", mix[0], "frame0_R", mix[1])

	stats := metrics.GetStats()
	logger.Info("render stats",
		"maxVoicesUsed", stats.MaxVoicesUsed,
		"voiceSteals", stats.VoiceStealEvents,
		"killAllEvents", stats.KillAllEvents,
		"maxProcessTime", stats.MaxProcessTime,
		"avgProcessTime", stats.AvgProcessTime,
	)

	allocStats := allocs.GetStats()
	logger.Info("allocation stats",
		"maxAllocsPerBuffer", allocStats.MaxAllocsPerBuffer,
		"totalAllocations", allocStats.TotalAllocations,
	)
}
