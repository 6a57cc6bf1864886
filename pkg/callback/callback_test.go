package callback

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    Action
		wantErr bool
	}{
		{
			name: "accept",
			data: AcceptData("2025-03-10"),
			want: Action{Kind: Accept, Date: "2025-03-10"},
		},
		{
			name: "decline",
			data: DeclineData("2025-03-10"),
			want: Action{Kind: Decline, Date: "2025-03-10"},
		},
		{
			name: "dish choice",
			data: ChooseDishData("9", "2025-03-10"),
			want: Action{Kind: ChooseDish, Dish: "9", Date: "2025-03-10"},
		},
		{
			name: "double digit dish code",
			data: ChooseDishData("11", "2025-03-10"),
			want: Action{Kind: ChooseDish, Dish: "11", Date: "2025-03-10"},
		},
		{
			name: "reset confirm",
			data: ResetAllConfirmData(),
			want: Action{Kind: ResetAllConfirm},
		},
		{
			name: "reset cancel",
			data: ResetAllCancelData(),
			want: Action{Kind: ResetAllCancel},
		},
		{name: "empty", data: "", wantErr: true},
		{name: "unknown prefix", data: "poll_yes_2025-03-10", wantErr: true},
		{name: "attendance without date", data: "attendance_yes", wantErr: true},
		{name: "attendance with unknown answer", data: "attendance_maybe_2025-03-10", wantErr: true},
		{name: "menu without date", data: "menu_9", wantErr: true},
		{name: "menu with empty code", data: "menu__2025-03-10", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.data)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) = %+v, want error", tt.data, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.data, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.data, got, tt.want)
			}
		})
	}
}
