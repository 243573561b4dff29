package matching

import (
	"go.uber.org/zap"
)

// SolveBalancedStub computes the balanced variant of the single-stub network:
// the geometry is identical, but the matching susceptance is realized as two
// identical stubs placed symmetrically, one on each leg of a balanced line,
// each contributing half the susceptance. Reported stub lengths are per stub.
func SolveBalancedStub(logger *zap.Logger, req Request) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s, err := resolve(req)
	if err != nil {
		return nil, err
	}
	res := s.newResult(TopologyBalancedStub)
	s.solveShuntStub(logger, res, TopologyBalancedStub, true)
	return res, nil
}
