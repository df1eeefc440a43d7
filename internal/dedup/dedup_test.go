package dedup

import (
	"testing"

	"orderledger/internal/types"
)

const ledgerHeader = "客户姓名,客户电话,客户地址,商品类型(国标/母婴),成交金额,面积,履约时间,CMA点位数量,备注赠品\n"

func TestFindDuplicatesPhoneExact(t *testing.T) {
	existing := ledgerHeader +
		"李四,13800138000,上海市浦东新区,母婴,3000,80,2024-01-10,3,\n"
	entries := []string{
		"张三,13800138000,北京市朝阳区某小区,国标,5000,100,2024-01-15,5,\"{除醛宝:2}\"",
	}

	report := FindDuplicates(entries, existing)

	if len(report.Indexes) != 1 || report.Indexes[0] != 0 {
		t.Fatalf("Indexes = %v, want [0]", report.Indexes)
	}
	if len(report.Details) != 1 {
		t.Fatalf("Details = %+v, want one entry", report.Details)
	}
	detail := report.Details[0]
	if len(detail.MatchedRows) != 1 {
		t.Fatalf("MatchedRows = %+v, want one", detail.MatchedRows)
	}
	if detail.MatchedRows[0].MatchType != types.MatchPhoneExact {
		t.Errorf("MatchType = %q, want %q", detail.MatchedRows[0].MatchType, types.MatchPhoneExact)
	}
	if detail.MatchedRows[0].ExistingIndex != 2 {
		t.Errorf("ExistingIndex = %d, want 2", detail.MatchedRows[0].ExistingIndex)
	}
}

func TestFindDuplicatesNameAddressFuzzy(t *testing.T) {
	existing := ledgerHeader +
		"张三,13900000000,北京市朝阳区某小区,国标,5000,100,2024-01-10,5,\n"
	// Different phone, honorific on the name, house number on the address.
	entries := []string{
		"张三先生,13800138000,北京市朝阳区某小区3栋,国标,5000,100,2024-01-15,5,",
	}

	report := FindDuplicates(entries, existing)

	if len(report.Indexes) != 1 {
		t.Fatalf("Indexes = %v, want one flagged row", report.Indexes)
	}
	if got := report.Details[0].MatchedRows[0].MatchType; got != types.MatchNameAddressFuzzy {
		t.Errorf("MatchType = %q, want %q", got, types.MatchNameAddressFuzzy)
	}
}

func TestFindDuplicatesPhoneShortCircuitsFuzzy(t *testing.T) {
	// Same phone AND same name/address: only the phone rule fires.
	existing := ledgerHeader +
		"张三,13800138000,北京市朝阳区某小区,国标,5000,100,2024-01-10,5,\n"
	entries := []string{
		"张三,13800138000,北京市朝阳区某小区,国标,5000,100,2024-01-15,5,",
	}

	report := FindDuplicates(entries, existing)

	if len(report.Details) != 1 {
		t.Fatalf("Details = %+v, want one entry", report.Details)
	}
	rows := report.Details[0].MatchedRows
	if len(rows) != 1 {
		t.Fatalf("MatchedRows = %+v, want one", rows)
	}
	if rows[0].MatchType != types.MatchPhoneExact {
		t.Errorf("MatchType = %q, want %q", rows[0].MatchType, types.MatchPhoneExact)
	}
}

func TestFindDuplicatesContainmentBothDirections(t *testing.T) {
	// The shorter name/address may live on either side.
	existing := ledgerHeader +
		"张三先生,13900000000,北京市朝阳区某小区5号楼,国标,5000,100,2024-01-10,5,\n"
	entries := []string{
		"张三,13800138000,朝阳区某小区,国标,5000,100,2024-01-15,5,",
	}

	report := FindDuplicates(entries, existing)

	if len(report.Indexes) != 1 {
		t.Errorf("Indexes = %v, want one flagged row", report.Indexes)
	}
}

func TestFindDuplicatesShortCoreAddressSkipsFuzzy(t *testing.T) {
	// A core address under 3 characters is too weak a signal, even when the
	// historical row is identical.
	existing := ledgerHeader +
		"王五,13900000000,某地,国标,5000,100,2024-01-10,5,\n"
	entries := []string{
		"王五,13800138000,某地,国标,5000,100,2024-01-15,5,",
	}

	report := FindDuplicates(entries, existing)

	if len(report.Indexes) != 0 {
		t.Errorf("Indexes = %v, want none", report.Indexes)
	}
}

func TestFindDuplicatesNoMatch(t *testing.T) {
	existing := ledgerHeader +
		"李四,13900000000,上海市浦东新区某公寓,母婴,3000,80,2024-01-10,3,\n"
	entries := []string{
		"张三,13800138000,北京市朝阳区某小区,国标,5000,100,2024-01-15,5,",
	}

	report := FindDuplicates(entries, existing)

	if len(report.Indexes) != 0 || len(report.Details) != 0 {
		t.Errorf("report = %+v, want empty", report)
	}
}

func TestFindDuplicatesEmptyLedger(t *testing.T) {
	entries := []string{
		"张三,13800138000,北京市朝阳区某小区,国标,5000,100,2024-01-15,5,",
	}

	report := FindDuplicates(entries, "")

	if len(report.Indexes) != 0 {
		t.Errorf("Indexes = %v, want none", report.Indexes)
	}
}

func TestFindDuplicatesSkipsShortHistoricalRows(t *testing.T) {
	// Historical rows with fewer than 3 columns never participate.
	existing := "张三\n张三,13900000000\n"
	entries := []string{
		"张三,,北京市朝阳区某小区,国标,5000,100,2024-01-15,5,",
	}

	report := FindDuplicates(entries, existing)

	if len(report.Indexes) != 0 {
		t.Errorf("Indexes = %v, want none", report.Indexes)
	}
}

func TestFindDuplicatesFlagsEachRowAtMostOnce(t *testing.T) {
	existing := ledgerHeader +
		"李四,13800138000,上海市浦东新区,母婴,3000,80,2024-01-10,3,\n" +
		"王五,13800138000,广州市天河区,国标,2000,60,2024-01-12,2,\n"
	entries := []string{
		"张三,13800138000,北京市朝阳区某小区,国标,5000,100,2024-01-15,5,",
	}

	report := FindDuplicates(entries, existing)

	if len(report.Indexes) != 1 {
		t.Errorf("Indexes = %v, want exactly [0]", report.Indexes)
	}
}

func TestCleanNameStripsHonorifics(t *testing.T) {
	tests := []struct{ in, want string }{
		{"张三先生", "张三"},
		{"李女士", "李"},
		{"王经理", "王"},
		{"赵老师", "赵"},
		{"张三", "张三"},
	}
	for _, tt := range tests {
		if got := cleanName(tt.in); got != tt.want {
			t.Errorf("cleanName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtractCoreAddress(t *testing.T) {
	tests := []struct{ in, want string }{
		{"北京市朝阳区某小区3栋", "北京市朝阳区某小区"},
		{"上海市浦东新区某公寓", "上海市浦东新区某公寓"},
		{"幸福小区", "幸福小区"},
	}
	for _, tt := range tests {
		if got := extractCoreAddress(tt.in); got != tt.want {
			t.Errorf("extractCoreAddress(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
