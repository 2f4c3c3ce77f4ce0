package segmend_test

import (
	"context"
	"fmt"

	"github.com/hupe1980/segmend"
	"github.com/hupe1980/segmend/blobstore"
	"github.com/hupe1980/segmend/schema"
	"github.com/hupe1980/segmend/value"
)

func Example() {
	ctx := context.Background()

	r, err := segmend.Create(ctx, blobstore.NewMemoryStore(), "events_0", 1000, segmend.V1)
	if err != nil {
		panic(err)
	}
	defer r.Close()

	s, err := schema.New("events",
		schema.Dimension("region", value.TypeString, value.String("UNKNOWN")),
	)
	if err != nil {
		panic(err)
	}

	report, err := r.Reconcile(ctx, s, schema.DefaultIndexingConfig())
	if err != nil {
		panic(err)
	}
	fmt.Println(report.Changed())

	desc, _ := r.Column("region")
	fmt.Println(desc.Cardinality, desc.TotalDocs)

	// Output:
	// [region]
	// 1 1000
}

func ExampleReconciler_Plan() {
	ctx := context.Background()

	r, _ := segmend.Create(ctx, blobstore.NewMemoryStore(), "events_0", 10, segmend.V3)
	defer r.Close()

	s, _ := schema.New("events",
		schema.Dimension("region", value.TypeString, value.String("UNKNOWN")),
		schema.Metric("score", value.TypeInt, value.Int(-1)),
	)

	for _, d := range r.Plan(s, schema.DefaultIndexingConfig()).Decisions() {
		fmt.Println(d.Action, d.Column)
	}

	// Output:
	// ADD region
	// ADD score
}
