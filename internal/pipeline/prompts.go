package pipeline

import (
	"encoding/json"
	"strings"
)

// FewShotExample pairs a bank notification with the JSON the model should answer.
type FewShotExample struct {
	Input  string
	Output ExampleReply
}

// ExampleReply is the reply shape shown to the model. Field order is the order the model sees.
type ExampleReply struct {
	Amount    int64  `json:"so_tien_giao_dich"`
	Direction string `json:"loai_giao_dich"`
	Date      string `json:"ngay_gio_giao_dich"`
}

// FewShotExamples is the fixed example set embedded in every extraction prompt.
var FewShotExamples = []FewShotExample{
	{
		Input: "07:29 16/06/2025 Tai khoan thanh toan: 4616789699 So tien: - 50,000 VND So du cuoi: 6,673,125 VND " +
			"Ma giao dich: 0992dLK4-80wKAyuuH Noi dung giao dich: Omni Channel-TKThe :0363067975, tai ICBVVNVX. " +
			"NGUYEN THAI HUNG CHUYEN TIEN -020097048806160729032025rC6v011964-1/2-PMT-002",
		Output: ExampleReply{Amount: -50000, Direction: "Chi", Date: "16/06/2025"},
	},
	{
		Input:  "Agribank: 16h08p 13/06 TK 2300205418014: +20,000,000VND NGUYEN THAI HUNG CHUYEN TIEN. SD: 39,960,474VND.",
		Output: ExampleReply{Amount: 20000000, Direction: "Thu", Date: "13/06/2025"},
	},
	{
		Input:  "Vietcombank thong bao: 10:30 ngay 14/06/2025 -123,456 VND TK: XXXXX. Noi dung: Rut tien ATM",
		Output: ExampleReply{Amount: -123456, Direction: "Chi", Date: "14/06/2025"},
	},
}

var examplesBlock = renderExamples(FewShotExamples)

func renderExamples(examples []FewShotExample) string {
	var b strings.Builder
	b.WriteString("Ví dụ:\n")
	for _, ex := range examples {
		out, err := json.MarshalIndent(ex.Output, "", "  ")
		if err != nil {
			panic("pipeline: rendering few-shot example: " + err.Error())
		}
		b.WriteString("Input: \"" + ex.Input + "\"\n")
		b.WriteString("Output:\n```json\n")
		b.Write(out)
		b.WriteString("\n```\n\n")
	}
	return b.String()
}

// BuildPrompt returns the extraction request for one bank notification.
// The statement is appended verbatim as the last block.
func BuildPrompt(bankStatement string) string {
	var b strings.Builder

	b.WriteString("Trích xuất 'Số tiền giao dịch', 'Loại giao dịch' (Thu/Chi), và 'Ngày/Giờ' từ thông báo biến động số dư sau.\n")
	b.WriteString("Nếu 'Số tiền' có dấu '-', đó là 'Chi'. Nếu không có dấu '-', hoặc có dấu '+', đó là 'Thu'.\n")
	b.WriteString("Định dạng 'Ngày/Giờ' thành DD/MM/YYYY.\n")
	b.WriteString("Nếu không tìm thấy 'Ngày/Giờ' cụ thể trong thông báo, sử dụng ngày hiện tại của hệ thống với định dạng DD/MM/YYYY.\n")
	b.WriteString("Trả về kết quả dưới dạng JSON với các khóa \"" + KeyAmount + "\", \"" + KeyDirection + "\", \"" + KeyDate + "\".\n\n")

	b.WriteString(examplesBlock)

	b.WriteString("Thông báo cần phân tích:\n")
	b.WriteString(bankStatement)

	return b.String()
}
