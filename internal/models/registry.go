package models

import "time"

// AxeRule is an automated accessibility rule from the read-only axe store.
type AxeRule struct {
	RuleID      int64   `db:"rule_id" json:"ruleId"`
	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description"`
	Impact      *string `db:"impact" json:"impact"`
	Selector    *string `db:"selector" json:"selector"`
	Tags        *string `db:"tags" json:"tags"`
	Help        *string `db:"help" json:"help"`
}

// AxeWcag maps an axe rule to a WCAG success criterion number.
type AxeWcag struct {
	AxeRuleID           int64  `db:"axe_rule_id" json:"axeRuleId"`
	WcagCriterionNumber string `db:"wcag_criterion_number" json:"wcagCriterionNumber"`
}

// TestResultAxeHeader describes one automated test run.
type TestResultAxeHeader struct {
	TestID          int64      `db:"test_id" json:"testId"`
	TestTimestamp   *time.Time `db:"test_timestamp" json:"testTimestamp"`
	URL             *string    `db:"url" json:"url"`
	DomainName      *string    `db:"domain_name" json:"domainName"`
	AxeVersion      *string    `db:"axe_version" json:"axeVersion"`
	TestEnvironment *string    `db:"test_environment" json:"testEnvironment"`
	TimeTaken       *float64   `db:"time_taken" json:"timeTaken"`
	TestSucceeded   *bool      `db:"test_succeeded" json:"testSucceeded"`
	FurtherInfo     *string    `db:"further_info" json:"furtherInfo"`
}

// TestResultAxeData is one rule outcome within an automated test run.
type TestResultAxeData struct {
	TestDataID int64   `db:"test_data_id" json:"testDataId"`
	TestID     int64   `db:"test_id" json:"testId"`
	RuleName   string  `db:"rule_name" json:"ruleName"`
	TestStatus string  `db:"test_status" json:"testStatus"`
	Nodes      *string `db:"nodes" json:"nodes"`
}

// RegistryFilter constrains read-only registry queries.
type RegistryFilter struct {
	DomainName string
	Limit      int
	Offset     int
}
