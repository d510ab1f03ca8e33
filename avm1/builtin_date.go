package avm1

import (
	"math"
	"time"
)

// DateObject holds a time as milliseconds since the epoch. NaN is an
// invalid date.
type DateObject struct {
	*ScriptObject
	millis float64
}

// NewDateObject creates a date with the system Date prototype.
func NewDateObject(act *Activation, millis float64) *DateObject {
	return &DateObject{ScriptObject: NewScriptObject(act.avm.prototypes.Date), millis: millis}
}

// Millis returns the stored time.
func (d *DateObject) Millis() float64 { return d.millis }

func (d *DateObject) CreateBareObject(act *Activation, this Object) (Object, error) {
	return &DateObject{ScriptObject: NewScriptObject(this), millis: math.NaN()}, nil
}

func (d *DateObject) time() (time.Time, bool) {
	if math.IsNaN(d.millis) || math.IsInf(d.millis, 0) {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(d.millis)).Local(), true
}

func nowMillis(act *Activation) float64 {
	return float64(act.Context.Now().UnixMilli())
}

// dateFunction is Date called without new: the current time as a string.
func dateFunction(act *Activation, this Object, args []Value) (Value, error) {
	return dateToString(act, NewDateObject(act, nowMillis(act)), nil)
}

// dateConstruct accepts no arguments (now), milliseconds, or year, month
// and optional day, hours, minutes, seconds and milliseconds.
func dateConstruct(act *Activation, this Object, args []Value) (Value, error) {
	d, ok := this.(*DateObject)
	if !ok {
		return ObjectValue(this), nil
	}
	switch len(args) {
	case 0:
		d.millis = nowMillis(act)
	case 1:
		n, err := args[0].ToNumber(act)
		if err != nil {
			return Undefined, err
		}
		d.millis = n
	default:
		parts := [7]float64{0, 0, 1, 0, 0, 0, 0}
		for i := 0; i < len(args) && i < 7; i++ {
			n, err := args[i].ToNumber(act)
			if err != nil {
				return Undefined, err
			}
			if math.IsNaN(n) {
				d.millis = math.NaN()
				return ObjectValue(this), nil
			}
			parts[i] = n
		}
		year := int(parts[0])
		if year >= 0 && year < 100 {
			year += 1900
		}
		t := time.Date(year, time.Month(int(parts[1])+1), int(parts[2]), int(parts[3]), int(parts[4]), int(parts[5]), int(parts[6])*int(time.Millisecond), time.Local)
		d.millis = float64(t.UnixMilli())
	}
	return ObjectValue(this), nil
}

func defineDateMethods(proto *ScriptObject, fnProto Object) {
	field := func(get func(t time.Time) int) NativeFunction {
		return func(act *Activation, this Object, args []Value) (Value, error) {
			d, ok := this.(*DateObject)
			if !ok {
				return Number(math.NaN()), nil
			}
			t, ok := d.time()
			if !ok {
				return Number(math.NaN()), nil
			}
			return Number(float64(get(t))), nil
		}
	}
	defineMethods(proto, fnProto, DontEnum|DontDelete, map[string]NativeFunction{
		"getTime":         dateGetTime,
		"valueOf":         dateGetTime,
		"setTime":         dateSetTime,
		"toString":        dateToString,
		"getFullYear":     field(func(t time.Time) int { return t.Year() }),
		"getYear":         field(func(t time.Time) int { return t.Year() - 1900 }),
		"getMonth":        field(func(t time.Time) int { return int(t.Month()) - 1 }),
		"getDate":         field(func(t time.Time) int { return t.Day() }),
		"getDay":          field(func(t time.Time) int { return int(t.Weekday()) }),
		"getHours":        field(func(t time.Time) int { return t.Hour() }),
		"getMinutes":      field(func(t time.Time) int { return t.Minute() }),
		"getSeconds":      field(func(t time.Time) int { return t.Second() }),
		"getMilliseconds": field(func(t time.Time) int { return t.Nanosecond() / int(time.Millisecond) }),
	})
}

func dateGetTime(act *Activation, this Object, args []Value) (Value, error) {
	if d, ok := this.(*DateObject); ok {
		return Number(d.millis), nil
	}
	return Number(math.NaN()), nil
}

func dateSetTime(act *Activation, this Object, args []Value) (Value, error) {
	d, ok := this.(*DateObject)
	if !ok {
		return Number(math.NaN()), nil
	}
	n, err := arg(args, 0).ToNumber(act)
	if err != nil {
		return Undefined, err
	}
	d.millis = n
	return Number(n), nil
}

func dateToString(act *Activation, this Object, args []Value) (Value, error) {
	d, ok := this.(*DateObject)
	if !ok {
		return String(defaultObjectString(this)), nil
	}
	t, ok := d.time()
	if !ok {
		return String("Invalid Date"), nil
	}
	return String(t.Format("Mon Jan 2 15:04:05 GMT-0700 2006")), nil
}
