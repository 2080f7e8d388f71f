package rent

// Account storage overhead charged on top of the data length when computing
// rent, covering account metadata.
const AccountStorageOverhead = 128

const DefaultLamportsPerBytePerYear = ((1000000000 / 100) * 365) / (1024 * 1024)
const DefaultExemptionThreshold = 2.0
const DefaultBurnPercent = 50

// Rent holds the cluster rent parameters. The harness passes these explicitly
// rather than reading a sysvar account, so independent harness instances never
// share ambient state.
type Rent struct {
	LamportsPerUint8Year uint64
	ExemptionThreshold   float64
	BurnPercent          byte
}

func DefaultRent() Rent {
	return Rent{
		LamportsPerUint8Year: DefaultLamportsPerBytePerYear,
		ExemptionThreshold:   DefaultExemptionThreshold,
		BurnPercent:          DefaultBurnPercent,
	}
}

// MinimumBalance returns the smallest lamport balance for which an account
// with dataLen bytes of data is exempt from rent.
func (r *Rent) MinimumBalance(dataLen uint64) uint64 {
	bytes := dataLen + AccountStorageOverhead
	return uint64((float64(bytes) * float64(r.LamportsPerUint8Year)) * r.ExemptionThreshold)
}

func (r *Rent) IsExempt(lamports uint64, dataLen uint64) bool {
	return lamports >= r.MinimumBalance(dataLen)
}
