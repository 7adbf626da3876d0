package metrics

// IDSink receives the building ids that survive each ApplyFilters call.
type IDSink interface {
	PublishBuildingIDs(ids []int)
}

// IDSinkFunc adapts a function to IDSink.
type IDSinkFunc func(ids []int)

// PublishBuildingIDs calls f(ids).
func (f IDSinkFunc) PublishBuildingIDs(ids []int) { f(ids) }

// Controller owns the full record set of one dashboard view and composes
// State transitions over it. It is not safe for concurrent use; callers
// scope one controller to one view and serialize access to it.
type Controller struct {
	records []MetricRecord
	state   State
	sink    IDSink
}

// NewController starts Idle over records. sink may be nil.
func NewController(records []MetricRecord, sink IDSink) *Controller {
	records = cloneRecords(records)
	return &Controller{
		records: records,
		state:   InitialState(records),
		sink:    sink,
	}
}

// SetSink replaces the id sink.
func (c *Controller) SetSink(sink IDSink) { c.sink = sink }

// Replace swaps the record set wholesale and returns to Idle.
func (c *Controller) Replace(records []MetricRecord) {
	c.records = cloneRecords(records)
	c.state = InitialState(c.records)
}

// State returns the current snapshot.
func (c *Controller) State() State { return c.state }

// Records returns a copy of the full, unfiltered set.
func (c *Controller) Records() []MetricRecord { return cloneRecords(c.records) }

// ToggleCategoricalValue flips value in the field's selection.
func (c *Controller) ToggleCategoricalValue(f CategoricalField, value string) {
	c.state = c.state.ToggleCategorical(f, value)
}

// SetNumericFilter replaces the operator and threshold for f.
func (c *Controller) SetNumericFilter(f NumericField, op Operator, t Threshold) {
	c.state = c.state.SetNumericFilter(f, op, t)
}

// SetCriteria replaces the whole selection; the filtered set is unchanged
// until ApplyFilters.
func (c *Controller) SetCriteria(criteria Criteria) {
	c.state = c.state.WithCriteria(criteria)
}

// ApplyFilters re-evaluates the full set, then forwards the surviving
// building ids to the sink and returns them.
func (c *Controller) ApplyFilters() []int {
	c.state = c.state.Apply(c.records)
	ids := BuildingIDs(c.state.filtered)
	if c.sink != nil {
		c.sink.PublishBuildingIDs(ids)
	}
	return ids
}

// ResetFilters clears the selection and restores the full set.
func (c *Controller) ResetFilters() {
	c.state = c.state.Reset(c.records)
}

// Views builds the presentations of the current filtered set.
func (c *Controller) Views() Views {
	return BuildViews(c.state.filtered)
}
