package hashid

import "testing"

func TestHashElement_Deterministic(t *testing.T) {
	a := HashElement(Present("com.ex"), Present("Button"), Present("btn_submit"), Present("Submit"), Absent(), Present("Decor:0"))
	b := HashElement(Present("com.ex"), Present("Button"), Present("btn_submit"), Present("Submit"), Absent(), Present("Decor:0"))
	if a != b {
		t.Fatalf("HashElement is not deterministic: %q != %q", a, b)
	}
}

func TestHashElement_AbsentVsEmptyDiffer(t *testing.T) {
	withAbsent := HashElement(Present("com.ex"), Present("Button"), Present("btn"), Absent(), Absent(), Present("Decor:0"))
	withEmpty := HashElement(Present("com.ex"), Present("Button"), Present("btn"), Present(""), Absent(), Present("Decor:0"))
	if withAbsent == withEmpty {
		t.Fatalf("absent text and empty-string text must hash differently")
	}
}

func TestHashElement_WhitespaceCanonicalized(t *testing.T) {
	a := HashElement(Present("com.ex"), Present("Button"), Present("btn"), Present("  Submit   Now "), Absent(), Present("Decor:0"))
	b := HashElement(Present("com.ex"), Present("Button"), Present("btn"), Present("Submit Now"), Absent(), Present("Decor:0"))
	if a != b {
		t.Fatalf("whitespace trimming/collapsing should make these equal: %q != %q", a, b)
	}
}

func TestContentFingerprint_FiltersContainersAndOrders(t *testing.T) {
	descriptors := []Descriptor{
		{Class: "android.widget.FrameLayout", Depth: 0, ChildOrder: 0},
		{Class: "android.widget.Button", Text: "Start", Depth: 1, ChildOrder: 0, IsClickable: true},
		{Class: "com.ex.DecorView", Depth: 0, ChildOrder: 1},
	}
	got := ContentFingerprint(descriptors, 10)
	want := "android.widget.Button:Start::true"
	if got != want {
		t.Fatalf("ContentFingerprint = %q, want %q", got, want)
	}
}

func TestContentFingerprint_TopNCap(t *testing.T) {
	var descriptors []Descriptor
	for i := 0; i < 15; i++ {
		descriptors = append(descriptors, Descriptor{Class: "android.widget.Button", Text: "x", Depth: i, ChildOrder: 0, IsClickable: true})
	}
	got := ContentFingerprint(descriptors, 10)
	count := 1
	for _, c := range got {
		if c == '|' {
			count++
		}
	}
	if count != 10 {
		t.Fatalf("expected 10 descriptors, got %d (%q)", count, got)
	}
}

func TestHashScreen_DistinctDescriptorsProduceDistinctHashes(t *testing.T) {
	fp1 := ContentFingerprint([]Descriptor{{Class: "Button", Text: "Start", IsClickable: true}}, 10)
	fp2 := ContentFingerprint([]Descriptor{{Class: "ProgressBar"}}, 10)

	h1 := HashScreen(Present("com.ex"), Present("MainActivity"), Present(""), fp1)
	h2 := HashScreen(Present("com.ex"), Present("MainActivity"), Present(""), fp2)
	if h1 == h2 {
		t.Fatalf("different content fingerprints must yield different screen hashes")
	}
}

func TestHashApp_Deterministic(t *testing.T) {
	a := HashApp(Present("com.ex"), 42, Present("1.2.3"), Present("sig-abc"))
	b := HashApp(Present("com.ex"), 42, Present("1.2.3"), Present("sig-abc"))
	if a != b {
		t.Fatalf("HashApp is not deterministic: %q != %q", a, b)
	}
}
