package payment

import (
	"strings"

	"github.com/google/uuid"
)

const (
	TransactionIDPrefix = "TXN_"
	MaxTransactionIDLen = 64
)

// NewTransactionID 生成本地交易号：TXN_ + 10位大写字母数字
// 也是回调关联键，数据库上有唯一索引
func NewTransactionID() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return TransactionIDPrefix + raw[:10]
}
