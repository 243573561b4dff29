// Package constants provides shared constants for the matchnet application.
package constants

// Physical constants
const (
	// SpeedOfLight is the speed of light in vacuum in meters per second.
	SpeedOfLight = 299792458.0

	// DefaultZ0 is the default reference impedance in ohms.
	DefaultZ0 = 50.0

	// DefaultVelocityFactor is the propagation velocity factor assumed for
	// transmission-line sections (1.0 = free space).
	DefaultVelocityFactor = 1.0
)

// Matching tolerances. These are part of the solver contract: results at or
// beyond these limits change which solutions are produced, not just their
// formatting.
const (
	// DirectConnectToleranceOhms is the distance in the impedance plane below
	// which source and target count as already matched.
	DirectConnectToleranceOhms = 0.05

	// ZeroResistanceEpsilon is the resistance in ohms below which an impedance
	// is treated as purely reactive.
	ZeroResistanceEpsilon = 1e-6

	// RootEpsilon bounds discriminants and root magnitudes: discriminants
	// above -RootEpsilon are clamped to zero, and paired roots closer than
	// RootEpsilon collapse into one solution.
	RootEpsilon = 1e-9

	// ComponentEpsilon is the reactance or susceptance magnitude below which a
	// component is omitted from a solution instead of being emitted with an
	// absurd value.
	ComponentEpsilon = 1e-9

	// GammaMagnitudeTolerance is the |Γ| difference below which source and
	// target lie on the same constant-|Γ| circle, so a plain line rotation
	// suffices.
	GammaMagnitudeTolerance = 1e-3

	// SentinelImpedanceOhms stands in for an infinite impedance when a
	// conversion degenerates (Γ = 1).
	SentinelImpedanceOhms = 1e9
)

// Stub spacing fractions for the double-stub tuner, in wavelengths.
const (
	SpacingEighthWave      = 0.125
	SpacingThreeEighthWave = 0.375
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for YAML
	// batch files (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024
)
