package sheet

import "testing"

func TestLayoutForWidth(t *testing.T) {
	for _, width := range []int{33, 34, 35} {
		layout, err := LayoutForWidth(width)
		if err != nil {
			t.Fatalf("width %d: unexpected error: %v", width, err)
		}
		if layout.Width() != width {
			t.Fatalf("width %d: layout reports width %d", width, layout.Width())
		}
		if layout.ReportCodeIndex() != width-1 {
			t.Fatalf("width %d: report code index %d, want %d", width, layout.ReportCodeIndex(), width-1)
		}
	}

	for _, width := range []int{0, 1, 32, 36, 100} {
		if _, err := LayoutForWidth(width); err == nil {
			t.Fatalf("width %d: expected error", width)
		}
	}
}

func TestLayoutTimestampColumns(t *testing.T) {
	if _, ok := LayoutV33.CreatedAtIndex(); ok {
		t.Fatal("layout 33 should not carry createdAt")
	}
	if _, ok := LayoutV33.UpdatedAtIndex(); ok {
		t.Fatal("layout 33 should not carry updatedAt")
	}

	if idx, ok := LayoutV34.CreatedAtIndex(); !ok || idx != 32 {
		t.Fatalf("layout 34 createdAt = (%d, %v), want (32, true)", idx, ok)
	}
	if _, ok := LayoutV34.UpdatedAtIndex(); ok {
		t.Fatal("layout 34 should not carry updatedAt")
	}

	if idx, ok := LayoutV35.CreatedAtIndex(); !ok || idx != 32 {
		t.Fatalf("layout 35 createdAt = (%d, %v), want (32, true)", idx, ok)
	}
	if idx, ok := LayoutV35.UpdatedAtIndex(); !ok || idx != 33 {
		t.Fatalf("layout 35 updatedAt = (%d, %v), want (33, true)", idx, ok)
	}
}
