// Package policy converts the combined intent states of one output into a
// protocol command.
//
// A DataPolicy is a pure function of its input. Controllers carry a default
// policy and each output may override it.
//
//	p, err := policy.Parse("intensity8")
//	cmd := p.GenerateCommand(states)
package policy
