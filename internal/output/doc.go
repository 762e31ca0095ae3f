// Package output turns channel states into per-output commands and drives
// the output modules that transmit them.
//
// A Controller owns a fixed number of outputs. Each output reads the
// states of its source channels, merges them with the layered combinator,
// generates a command with its data policy and runs the result through its
// post filters.
//
// Controllers can be chained so that several share one hardware module
// (for example a daisy-chain of pixel strips on one SPI bus). Only the
// root of a chain ticks: it recomputes every member first and then writes
// each member to the module in chain order, selecting the member with
// Module.SetChainIndex.
//
// # Usage
//
//	links := output.NewLinking()
//	root := output.NewController(output.Config{
//	    Name:        "stage-left",
//	    OutputCount: 16,
//	    DataPolicy:  policy.Intensity8{},
//	    Module:      artnetModule,
//	}, playback)
//	_ = links.Register(root)
//	_ = root.SetOutputSources(0, channelID)
//
//	// Controllers implement hardware.Device.
//	_, _ = manager.Add(root)
//
// # Thread Safety
//
// Controllers and Linking are safe for concurrent use. Update holds the
// output-change lock of every chain member, acquired root first, so
// configuration changes never interleave with a tick.
package output
