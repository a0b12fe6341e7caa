package bot

import (
	"errors"
	"fmt"

	"github.com/dvloznov/household-ledger/internal/domain"
	"github.com/dvloznov/household-ledger/internal/pipeline"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Replies sent to the chat channel.
const (
	MsgNotReady     = "Bot chưa sẵn sàng do lỗi cấu hình. Vui lòng kiểm tra lại log trên console."
	MsgAck          = "🤖 Đang xử lý thông báo biến động số dư của bạn, vui lòng chờ trong giây lát..."
	MsgEmptyReply   = "❌ AI không thể trích xuất thông tin từ thông báo của bạn. Vui lòng thử lại với định dạng rõ ràng hơn hoặc thông báo khác."
	MsgMalformed    = "❌ Lỗi: AI trả về định dạng không phải JSON. Có vẻ AI không hiểu rõ yêu cầu. Vui lòng kiểm tra lại thông báo của bạn và thử lại."
	MsgUnexpected   = "❌ Đã xảy ra lỗi không mong muốn trong quá trình xử lý. Vui lòng thử lại sau."
	msgDataProblem  = "❌ Lỗi xử lý dữ liệu: %s. Có thể AI không trích xuất đủ thông tin hoặc định dạng số tiền/ngày tháng không đúng. Vui lòng kiểm tra lại thông báo của bạn."
	msgSinkFailure  = "❌ Không thể ghi giao dịch vào sổ thu chi: %s"
	msgMissingField = "Không tìm thấy '%s' trong phản hồi AI"
	msgBadAmount    = "Số tiền không hợp lệ (%q)"
)

const helpTemplate = "**Cách dùng:** dán thông báo biến động số dư, sau đó thêm `H.` (chồng) hoặc `L.` (vợ) và mô tả.\n" +
	"Ví dụ: `So tien: - 50,000 VND ... H. Tien an trua`\n" +
	"Lệnh: `%[1]shelp` hiển thị hướng dẫn, `%[1]sstatus` kiểm tra trạng thái bot."

var printer = message.NewPrinter(language.English)

// fieldKeys maps parser field names to the reply keys the user may recognise.
var fieldKeys = map[string]string{
	"amount":    pipeline.KeyAmount,
	"direction": pipeline.KeyDirection,
}

// FormatAmount renders an amount with thousands separators, e.g. 50,000.
func FormatAmount(amount int64) string {
	return printer.Sprintf("%d", amount)
}

// SuccessMessage summarizes an appended ledger row.
func SuccessMessage(rec *domain.LedgerRecord, payerLabel string) string {
	return printer.Sprintf("✅ **Đã ghi nhận giao dịch vào sổ thu chi:**\n"+
		"• **Ngày:** `%s`\n"+
		"• **Loại:** `%s`\n"+
		"• **Số tiền:** `%d VND`\n"+
		"• **Nội dung:** `%s`\n"+
		"• **Người thu/chi:** `%s`",
		rec.Date, string(rec.Direction), rec.Amount, rec.Description, payerLabel)
}

// HelpMessage is the reply to the help command.
func HelpMessage(prefix string) string {
	return fmt.Sprintf(helpTemplate, prefix)
}

// ErrorMessage picks the user-facing reply for a failed message. Unexpected errors never
// expose their text.
func ErrorMessage(err error) string {
	if errors.Is(err, pipeline.ErrUpstreamUnavailable) {
		return MsgNotReady
	}

	var ee *pipeline.ExtractionError
	if errors.As(err, &ee) {
		switch ee.Kind {
		case pipeline.KindEmptyResponse:
			return MsgEmptyReply
		case pipeline.KindMalformedJSON:
			return MsgMalformed
		case pipeline.KindMissingField:
			return printer.Sprintf(msgDataProblem, printer.Sprintf(msgMissingField, fieldKey(ee.Field)))
		case pipeline.KindInvalidAmount:
			return printer.Sprintf(msgDataProblem, printer.Sprintf(msgBadAmount, ee.Value))
		}
	}

	var se *pipeline.SinkError
	if errors.As(err, &se) {
		return printer.Sprintf(msgSinkFailure, se.Err.Error())
	}
	return MsgUnexpected
}

func fieldKey(field string) string {
	if k, ok := fieldKeys[field]; ok {
		return k
	}
	return field
}
