package sales

import "salesadmin/internal/model"

// StatusUnknown is the primary status of an order without line items
const StatusUnknown = "unknown"

// Class is the bucket an order status falls into
type Class int

const (
	ClassValid Class = iota
	ClassPending
	ClassCancelRefund
)

func (c Class) String() string {
	switch c {
	case ClassPending:
		return "pending"
	case ClassCancelRefund:
		return "cancelled_refunded"
	default:
		return "valid"
	}
}

// Classify maps a Cafe24 status code to its bucket
func Classify(code string) Class {
	switch code {
	case "N00":
		return ClassPending
	case "C00", "C10", "C34", "R00", "R10", "R12", "E00", "E10", "E12":
		return ClassCancelRefund
	}
	return ClassValid
}

// PrimaryStatus applies the primary-status rule: an order's status is the
// status of its first line item.
func PrimaryStatus(o model.Order) string {
	if len(o.Items) == 0 {
		return StatusUnknown
	}
	return o.Items[0].OrderStatus
}

// ClassifyOrder classifies an order by its primary status
func ClassifyOrder(o model.Order) Class {
	return Classify(PrimaryStatus(o))
}

var statusLabels = map[string]string{
	"N00": "입금대기",
	"N10": "입금확인",
	"N20": "배송준비중",
	"N21": "배송대기",
	"N22": "배송보류",
	"N30": "배송중",
	"N40": "배송완료",
	"N50": "구매확정",
	"C00": "취소신청",
	"C10": "취소접수",
	"C34": "취소완료",
	"R00": "반품신청",
	"R10": "반품접수",
	"R12": "반품완료",
	"E00": "교환신청",
	"E10": "교환접수",
	"E12": "교환완료",
}

// StatusLabel returns the Korean display label of a status code, or the code itself
func StatusLabel(code string) string {
	if label, ok := statusLabels[code]; ok {
		return label
	}
	return code
}
