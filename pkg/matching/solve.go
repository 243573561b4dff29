package matching

import (
	"fmt"

	"go.uber.org/zap"
)

// Solve routes a request to the solver selected by its Topology field.
func Solve(logger *zap.Logger, req Request) (*Result, error) {
	switch req.Topology {
	case TopologyL:
		return SolveL(logger, req)
	case TopologyT:
		return SolveT(logger, req)
	case TopologyPi:
		return SolvePi(logger, req)
	case TopologySingleStub:
		return SolveSingleStub(logger, req)
	case TopologyBalancedStub:
		return SolveBalancedStub(logger, req)
	case TopologyDoubleStub:
		return SolveDoubleStub(logger, req)
	default:
		return nil, fmt.Errorf("unknown topology %q", req.Topology)
	}
}

// Topologies lists the supported topology identifiers in display order.
func Topologies() []Topology {
	return []Topology{
		TopologyL,
		TopologyT,
		TopologyPi,
		TopologySingleStub,
		TopologyBalancedStub,
		TopologyDoubleStub,
	}
}
