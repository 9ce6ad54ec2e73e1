package kafka

import (
	"fmt"
	"strconv"
)

// Canal 变更类型
const (
	INSERT = "INSERT"
	UPDATE = "UPDATE"
	DELETE = "DELETE"
)

// CanalMessage 定义了 Canal 推送到 Kafka 的 JSON 数据结构
type CanalMessage struct {
	ID       int64    `json:"id"`
	Database string   `json:"database"`
	Table    string   `json:"table"`
	PKNames  []string `json:"pkNames"`
	IsDDL    bool     `json:"isDdl"`
	Type     string   `json:"type"`
	ES       int64    `json:"es"`
	TS       int64    `json:"ts"`
	SQL      string   `json:"sql"`

	// Data 存储变更后的数据
	Data []map[string]interface{} `json:"data"`

	// Old 存储变更前被修改的列，与 Data 按下标对应
	Old []map[string]interface{} `json:"old"`

	SqlType   map[string]int    `json:"sqlType"`
	MysqlType map[string]string `json:"mysqlType"`
}

// Before UPDATE 时用 Old 覆盖 Data 还原出变更前的整行
func (m *CanalMessage) Before(i int) map[string]interface{} {
	row := make(map[string]interface{}, len(m.Data[i]))
	for k, v := range m.Data[i] {
		row[k] = v
	}
	if i < len(m.Old) {
		for k, v := range m.Old[i] {
			row[k] = v
		}
	}
	return row
}

// Canal flat message 中的列值都是字符串，NULL 为 nil

func canalString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

func canalUint64(v interface{}) (uint64, error) {
	s := canalString(v)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseUint(s, 10, 64)
}

func canalOptionalUint64(v interface{}) (*uint64, error) {
	if v == nil || canalString(v) == "" {
		return nil, nil
	}
	n, err := canalUint64(v)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
