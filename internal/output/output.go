package output

import (
	"github.com/nerrad567/gray-logic-show/internal/command"
	"github.com/nerrad567/gray-logic-show/internal/filter"
	"github.com/nerrad567/gray-logic-show/internal/intent"
	"github.com/nerrad567/gray-logic-show/internal/policy"
)

// Output is one addressable output of a controller. It is owned by its
// controller and only touched under the controller's output-change lock.
type Output struct {
	Name    string
	Sources []intent.ChannelID

	policy  policy.DataPolicy
	filters filter.Chain
	command command.Command
}

// OutputSnapshot is a read-only copy of an output's state.
type OutputSnapshot struct {
	Index    int             `json:"index"`
	Name     string          `json:"name"`
	Sources  []string        `json:"sources"`
	Filters  int             `json:"filters"`
	Override bool            `json:"policy_override"`
	Command  string          `json:"command"`
	Raw      command.Command `json:"-"`
}

func (o *Output) snapshot(index int) OutputSnapshot {
	sources := make([]string, len(o.Sources))
	for i, id := range o.Sources {
		sources[i] = id.String()
	}
	return OutputSnapshot{
		Index:    index,
		Name:     o.Name,
		Sources:  sources,
		Filters:  len(o.filters),
		Override: o.policy != nil,
		Command:  command.Describe(o.command),
		Raw:      o.command,
	}
}
