// Package hardware drives output devices on dedicated update goroutines.
//
// Each physical output device gets one Thread. Once started, the thread
// repeats a tick until stopped:
//
//  1. Measure the time since the previous tick.
//  2. Ask the Engine for the current execution snapshot.
//  3. Call Device.Update, which combines states, generates commands and
//     writes them to the hardware.
//  4. Record instrumentation and log jitter above the threshold.
//  5. Wait on the device's Signaler for the next tick.
//  6. Wait on the pause gate.
//
// # State Machine
//
//	Stopped --Start--> Started --Stop--> Stopping --(loop exits)--> Stopped
//
// Stop wakes the loop from both waits so it is effective even while paused.
// WaitForFinish bounds the wait for the loop to exit; exceeding the stop
// timeout returns ErrStopTimeout and the device should be treated as hung.
//
// # Faults
//
// An error from Device.Update, or a panic in the loop, stops that thread
// only. The thread is marked stopped, waiters are released, the fault is
// logged with the device name and OnError observers are notified. Threads
// are never restarted automatically.
//
// # Manager
//
// Manager owns the threads of a process, starts them together, and stops
// them in parallel with golang.org/x/sync/errgroup. Lifecycle events
// (started, stopped, fault, timeout) are delivered to subscribers such as
// the device journal.
//
// Thread Safety:
//
// Thread and Manager methods are safe for concurrent use.
package hardware
