package intern

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var internLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "des_intern_lookups_total",
	Help: "Intern pool lookups by result (hit or miss)",
}, []string{"result"})

var internLookups = struct {
	hit  prometheus.Counter
	miss prometheus.Counter
}{
	hit:  internLookupsTotal.WithLabelValues("hit"),
	miss: internLookupsTotal.WithLabelValues("miss"),
}
