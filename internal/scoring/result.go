package scoring

import "github.com/kestrelsec/pagewarden/internal/models"

// OracleStatus tags the outcome of one oracle call. Response-shape
// sniffing stays behind this boundary; callers only ever branch on the
// tag.
type OracleStatus int

const (
	// OracleOK means a 2xx response carrying a well-formed verdict.
	OracleOK OracleStatus = iota
	// OracleMalformed means a 2xx response whose body lacked the
	// expected shape (no usable riskLevel).
	OracleMalformed
	// OracleTransportError means the oracle was unreachable: network
	// error, timeout, or a non-2xx status.
	OracleTransportError
)

// OracleResult is the tagged outcome of a scoring request.
type OracleResult struct {
	Status  OracleStatus
	Verdict models.RiskVerdict
	Err     error
}

func okResult(verdict models.RiskVerdict) OracleResult {
	return OracleResult{Status: OracleOK, Verdict: verdict}
}

func malformedResult(err error) OracleResult {
	return OracleResult{Status: OracleMalformed, Err: err}
}

func transportResult(err error) OracleResult {
	return OracleResult{Status: OracleTransportError, Err: err}
}
