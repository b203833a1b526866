package scale

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/jsvensson/valuetrainer/internal/canvas"
	"github.com/jsvensson/valuetrainer/internal/color"
)

func mustNew(t *testing.T, steps int, width, height float64) *Scale {
	t.Helper()
	s, err := New(steps, width, height)
	if err != nil {
		t.Fatalf("New(%d, %v, %v) error: %v", steps, width, height, err)
	}
	return s
}

func TestNewRejectsBadConfiguration(t *testing.T) {
	tests := []struct {
		name  string
		steps int
		w, h  float64
		field string
	}{
		{"one step", 1, 100, 10, "step count"},
		{"zero steps", 0, 100, 10, "step count"},
		{"zero width", 4, 0, 10, "width"},
		{"negative height", 4, 100, -1, "height"},
		{"infinite width", 4, math.Inf(1), 10, "width"},
		{"NaN height", 4, 100, math.NaN(), "height"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.steps, tt.w, tt.h)
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("New() error = %v, want ConfigurationError", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.field)
			}
		})
	}
}

func TestGeometryFourSteps(t *testing.T) {
	s := mustNew(t, 4, 400, 100)

	if got := s.StepWidth(); got != 100 {
		t.Errorf("StepWidth() = %v, want 100", got)
	}
	if got, want := s.Centers(), []float64{50, 150, 250, 350}; !slices.Equal(got, want) {
		t.Errorf("Centers() = %v, want %v", got, want)
	}

	wantLightness := []float64{100, 200.0 / 3, 100.0 / 3, 0}
	for i, want := range wantLightness {
		if got := s.Lightness(i); math.Abs(got-want) > 1e-9 {
			t.Errorf("Lightness(%d) = %v, want %v", i, got, want)
		}
		c := s.StepColorAt(i)
		if c.Hue != 0 || c.Saturation != 0 || math.Abs(c.Lightness-want) > 1e-9 {
			t.Errorf("StepColorAt(%d) = %v, want grey %v", i, c, want)
		}
	}
}

func TestStepOfPositionAtCenters(t *testing.T) {
	for _, steps := range []int{2, 3, 4, 5, 7, 8, 13} {
		for _, width := range []float64{1, 97, 400, 1234.5} {
			s := mustNew(t, steps, width, 10)
			for i := range steps {
				if got := s.StepOfPosition(s.Center(i)); got != float64(i) {
					t.Errorf("N=%d w=%v: StepOfPosition(center %d) = %v, want %d", steps, width, i, got, i)
				}
			}
		}
	}
}

func TestStepOfPositionAtMidpoints(t *testing.T) {
	for _, steps := range []int{2, 3, 4, 6, 8, 11} {
		for _, width := range []float64{3, 100, 640, 999.9} {
			s := mustNew(t, steps, width, 10)
			for i := 0; i < steps-1; i++ {
				mid := (s.Center(i) + s.Center(i+1)) / 2
				if got, want := s.StepOfPosition(mid), float64(i)+0.5; got != want {
					t.Errorf("N=%d w=%v: StepOfPosition(mid %d/%d) = %v, want %v", steps, width, i, i+1, got, want)
				}
			}
		}
	}
}

func TestStepOfPositionOutsideScale(t *testing.T) {
	s := mustNew(t, 4, 400, 10)
	tests := []struct {
		x    float64
		want float64
	}{
		{-50, 0},
		{0, 0},
		{99, 0},
		{101, 1},
		{400, 3},
		{1000, 3},
	}
	for _, tt := range tests {
		if got := s.StepOfPosition(tt.x); got != tt.want {
			t.Errorf("StepOfPosition(%v) = %v, want %v", tt.x, got, tt.want)
		}
	}
}

func TestStepOfColor(t *testing.T) {
	s := mustNew(t, 4, 400, 10)
	tests := []struct {
		name  string
		color color.Color
		want  int
	}{
		{"white", color.Grey(100), 0},
		{"black", color.Grey(0), 3},
		{"exact step 1", color.Grey(s.Lightness(1)), 1},
		{"rounded step 1", color.Grey(66.67), 1},
		{"near step 2", color.New(200, 80, 30), 2},
		{"tie between 0 and 1 goes low", color.Grey(250.0 / 3), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.StepOfColor(tt.color); got != tt.want {
				t.Errorf("StepOfColor(%v) = %d, want %d", tt.color, got, tt.want)
			}
		})
	}
}

func TestStepOfColorTwoStepTie(t *testing.T) {
	s := mustNew(t, 2, 100, 10)
	if got := s.StepOfColor(color.Grey(50)); got != 0 {
		t.Errorf("StepOfColor(grey 50) = %d, want 0 (lowest index on tie)", got)
	}
}

func TestStepOfColorIgnoresHue(t *testing.T) {
	s := mustNew(t, 8, 800, 10)
	for _, c := range []color.Color{
		color.New(10, 90, 12),
		color.New(120, 40, 55),
		color.New(300, 100, 93),
		color.New(45, 0, 50),
	} {
		if a, b := s.StepOfColor(c), s.StepOfColor(c.Greyscale()); a != b {
			t.Errorf("StepOfColor(%v) = %d but greyscale gives %d", c, a, b)
		}
	}
}

func TestStepColorAtPanicsOutOfRange(t *testing.T) {
	s := mustNew(t, 4, 400, 10)
	for _, idx := range []int{-1, 4, 100} {
		func() {
			defer func() {
				r := recover()
				oor, ok := r.(IndexOutOfRange)
				if !ok {
					t.Errorf("StepColorAt(%d) panic = %v, want IndexOutOfRange", idx, r)
					return
				}
				if oor.Index != idx || oor.Steps != 4 {
					t.Errorf("panic value = %+v", oor)
				}
			}()
			s.StepColorAt(idx)
		}()
	}
}

func TestResizeIdempotent(t *testing.T) {
	once := mustNew(t, 5, 300, 40)
	if err := once.Resize(777, 55); err != nil {
		t.Fatal(err)
	}
	twice := mustNew(t, 5, 300, 40)
	for range 2 {
		if err := twice.Resize(777, 55); err != nil {
			t.Fatal(err)
		}
	}

	if !slices.Equal(once.Centers(), twice.Centers()) {
		t.Errorf("centers differ: %v vs %v", once.Centers(), twice.Centers())
	}
	if once.StepWidth() != twice.StepWidth() || once.Height() != twice.Height() {
		t.Errorf("geometry differs after repeated resize")
	}
	if got := once.Center(0); got != 77.7 {
		t.Errorf("Center(0) = %v, want 77.7", got)
	}
}

func TestResizeRejectsBadDimensions(t *testing.T) {
	s := mustNew(t, 4, 400, 100)

	err := s.Resize(math.Inf(1), 100)
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("Resize(Inf) error = %v, want ErrInvalidState", err)
	}
	err = s.Resize(100, math.NaN())
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("Resize(NaN) error = %v, want ErrInvalidState", err)
	}
	var cfgErr *ConfigurationError
	if err := s.Resize(0, 100); !errors.As(err, &cfgErr) {
		t.Errorf("Resize(0) error = %v, want ConfigurationError", err)
	}

	if s.Width() != 400 || s.Height() != 100 || s.Center(0) != 50 {
		t.Errorf("failed resize changed geometry: width=%v height=%v", s.Width(), s.Height())
	}
}

func TestRestPositions(t *testing.T) {
	s := mustNew(t, 4, 400, 10)
	want := []float64{50, 100, 150, 200, 250, 300, 350}
	if got := s.RestPositions(); !slices.Equal(got, want) {
		t.Errorf("RestPositions() = %v, want %v", got, want)
	}
}

func TestSnapToRest(t *testing.T) {
	s := mustNew(t, 4, 400, 10)
	tests := []struct {
		x, want float64
	}{
		{0, 50},
		{74, 50},
		{75, 50},
		{76, 100},
		{149, 150},
		{362, 350},
		{500, 350},
	}
	for _, tt := range tests {
		if got := s.SnapToRest(tt.x); got != tt.want {
			t.Errorf("SnapToRest(%v) = %v, want %v", tt.x, got, tt.want)
		}
	}
}

func TestDrawWithHighlight(t *testing.T) {
	s := mustNew(t, 4, 400, 100)
	mem := canvas.NewMemory(400, 100)
	layer := mem.CreateLayer()
	layer.Add(s)

	layer.Draw()
	if c, _ := mem.At(10, 10); c != color.Grey(100) {
		t.Errorf("step 0 = %v, want white", c)
	}
	if c, _ := mem.At(390, 10); c != color.Grey(0) {
		t.Errorf("step 3 = %v, want black", c)
	}

	s.Highlight(2, color.Green)
	layer.Redraw()
	if c, _ := mem.At(250, 10); c != color.Green {
		t.Errorf("highlighted step = %v, want green", c)
	}

	s.ClearHighlight()
	layer.Redraw()
	if c, _ := mem.At(250, 10); c != s.StepColorAt(2) {
		t.Errorf("restored step = %v, want %v", c, s.StepColorAt(2))
	}
}
