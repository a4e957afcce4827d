package registry

import (
	"context"
	"fmt"
	"time"
)

// mockTitles 离线模式使用的确定性著录数据
// 由专利号的字符和取模选择，同一专利号总是得到同一条
var mockTitles = []string{
	"Lithium-ion battery with improved energy density",
	"Solar panel manufacturing process optimization",
	"Artificial intelligence model training method",
	"Wireless charging system for electric vehicles",
	"Biodegradable plastic composition",
	"Quantum computing error correction technique",
	"Medical imaging device with enhanced resolution",
	"Water purification membrane technology",
	"Wind turbine blade design optimization",
	"Pharmaceutical compound for cancer treatment",
}

var mockAbstracts = []string{
	"The present invention relates to an improved battery technology with enhanced performance characteristics.",
	"A novel method for manufacturing solar panels with increased efficiency and reduced costs.",
	"An innovative approach to training machine learning models using novel optimization techniques.",
	"A wireless charging system designed specifically for electric vehicle applications.",
	"A biodegradable plastic material with improved strength and environmental characteristics.",
	"A quantum error correction method that significantly improves qubit stability.",
	"An advanced medical imaging device providing superior image quality for diagnosis.",
	"A water purification membrane with enhanced filtration capabilities.",
	"An optimized wind turbine blade design for improved energy capture.",
	"A pharmaceutical composition with novel therapeutic properties for oncology.",
}

// MockClient 离线登记处客户端，无网络依赖
// 用于测试和演示；FailErr非nil时所有调用返回该错误
type MockClient struct {
	FailErr error
	Fetches int
}

// NewMockClient 创建离线客户端
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Fetch 生成确定性的模拟著录数据
func (m *MockClient) Fetch(ctx context.Context, patentNumber string) (*PatentRecord, error) {
	if m.FailErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, m.FailErr)
	}
	m.Fetches++

	n := checksum(patentNumber)
	filed := time.Date(2020+n%5, time.Month(n%12+1), n%28+1, 0, 0, 0, 0, time.UTC)
	published := time.Date(2021+n%5, time.Month(n%12+1), n%28+1, 0, 0, 0, 0, time.UTC)

	return &PatentRecord{
		PatentNumber:    patentNumber,
		Title:           mockTitles[n],
		Abstract:        mockAbstracts[n],
		FilingDate:      &filed,
		PublicationDate: &published,
		Applicants:      []string{fmt.Sprintf("Company %c", 'A'+n), fmt.Sprintf("Research Institute %d", n)},
		Inventors:       []string{fmt.Sprintf("Dr. John Smith %d", n), fmt.Sprintf("Dr. Jane Doe %d", n)},
		IPCClasses:      []string{fmt.Sprintf("H01M %d/00", n), fmt.Sprintf("G06F %d/00", n)},
	}, nil
}

// Search 生成确定性的模拟检索结果
func (m *MockClient) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if m.FailErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, m.FailErr)
	}

	if limit > 10 {
		limit = 10
	}

	results := make([]SearchResult, 0, limit)
	for i := 0; i < limit; i++ {
		results = append(results, SearchResult{
			PatentNumber: fmt.Sprintf("EP%d", 1000000+i+len(query)*100),
			Title:        fmt.Sprintf("Patent related to %s - %d", query, i+1),
			Abstract:     fmt.Sprintf("This patent describes technology related to %s", query),
			Score:        1.0 - float64(i)*0.1,
		})
	}

	return results, nil
}

// checksum 专利号字符和取模，落在[0,10)
func checksum(patentNumber string) int {
	sum := 0
	for _, c := range patentNumber {
		sum += int(c)
	}
	return sum % 10
}
