package langdetect

import (
	"testing"
)

func BenchmarkDetectMarkup(b *testing.B) {
	code := []byte("#set page(width: auto)\n#let title = [Report]\n")
	b.ResetTimer()
	for range b.N {
		Detect(code)
	}
}

func BenchmarkDetectClassifier(b *testing.B) {
	code := []byte(`public class Main {
    public static void main(String[] args) {
        System.out.println("Hello");
    }
}`)
	b.ResetTimer()
	for range b.N {
		Detect(code)
	}
}

func BenchmarkNormalize(b *testing.B) {
	b.ResetTimer()
	for range b.N {
		Normalize("golang")
	}
}
