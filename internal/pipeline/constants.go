package pipeline

// Keys of the JSON object the model is asked to produce.
const (
	KeyAmount    = "so_tien_giao_dich"
	KeyDirection = "loai_giao_dich"
	KeyDate      = "ngay_gio_giao_dich"
)

// LedgerDateLayout is the DD/MM/YYYY layout written to the ledger.
const LedgerDateLayout = "02/01/2006"
