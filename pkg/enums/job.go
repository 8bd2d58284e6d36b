package enums

// JobName identifies a handler registered on the delayed job queue.
type JobName string

const (
	JobSaleApply  JobName = "sale.apply"
	JobSaleRevert JobName = "sale.revert"
)

// String implements fmt.Stringer.
func (j JobName) String() string {
	return string(j)
}
